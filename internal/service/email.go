package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
)

// mailSender is the part of *sendgrid.Client the email service uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client   mailSender
	from     string
	fromName string
}

// NewEmailService returns a SendGrid-backed sender, or a log-only sender when
// apiKey is empty so local runs work without credentials.
func NewEmailService(apiKey, from, fromName string) EmailService {
	if apiKey == "" {
		logger.Warn("SendGrid API key not set; emails will only be logged")
		return &logEmailService{}
	}
	return &emailService{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.from), subject, mail.NewEmail(toName, to), plainText, htmlContent)

	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendRegistrationStatusNotification(ctx context.Context, email, name string, status domain.RegistrationStatus) error {
	subject, plain := statusMessage(name, status)
	htmlContent := fmt.Sprintf("<html><body><p>%s</p></body></html>",
		strings.ReplaceAll(html.EscapeString(plain), "\n\n", "</p><p>"))
	return s.send(ctx, email, name, subject, plain, htmlContent)
}

func (s *emailService) SendPendingDigest(ctx context.Context, to []string, pending []domain.MemberView) error {
	subject, plain := digestMessage(pending)
	var b strings.Builder
	b.WriteString("<html><body><h2>Pending registrations</h2><ul>")
	for _, m := range pending {
		fmt.Fprintf(&b, "<li>%s (%s, %s)</li>", html.EscapeString(m.Name), html.EscapeString(m.StudentID), html.EscapeString(m.Course))
	}
	b.WriteString("</ul></body></html>")

	for _, addr := range to {
		if err := s.send(ctx, addr, "", subject, plain, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func statusMessage(name string, status domain.RegistrationStatus) (subject, body string) {
	switch status {
	case domain.RegistrationStatusApproved:
		subject = "Your EcoDefill registration was approved"
		body = fmt.Sprintf("Hello %s,\n\nYour EcoDefill registration has been approved. You can now use the refill stations on campus.", name)
	case domain.RegistrationStatusRejected:
		subject = "Your EcoDefill registration was not approved"
		body = fmt.Sprintf("Hello %s,\n\nYour EcoDefill registration was not approved. Please contact the administrator if you think this is a mistake.", name)
	default:
		subject = "Your EcoDefill registration is under review"
		body = fmt.Sprintf("Hello %s,\n\nYour EcoDefill registration is pending review.", name)
	}
	body += "\n\nBest regards,\nThe EcoDefill Team"
	return subject, body
}

func digestMessage(pending []domain.MemberView) (subject, body string) {
	subject = fmt.Sprintf("%d EcoDefill registrations awaiting review", len(pending))
	var b strings.Builder
	b.WriteString("The following students are waiting for a decision:\n\n")
	for _, m := range pending {
		fmt.Fprintf(&b, "- %s <%s> %s %s\n", m.Name, m.Email, m.StudentID, m.Course)
	}
	return subject, b.String()
}

// logEmailService writes emails to the log instead of sending them.
type logEmailService struct{}

func (logEmailService) SendRegistrationStatusNotification(ctx context.Context, email, name string, status domain.RegistrationStatus) error {
	subject, _ := statusMessage(name, status)
	logger.Info("Email (not sent)", "to", email, "subject", subject)
	return nil
}

func (logEmailService) SendPendingDigest(ctx context.Context, to []string, pending []domain.MemberView) error {
	subject, _ := digestMessage(pending)
	logger.Info("Email (not sent)", "to", strings.Join(to, ","), "subject", subject)
	return nil
}
