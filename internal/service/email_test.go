package service

import (
	"context"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecodefill-backend/internal/domain"
)

func TestEmailService_SendRegistrationStatusNotification(t *testing.T) {
	ctx := context.Background()
	sender := new(MockMailSender)
	svc := &emailService{client: sender, from: "noreply@ecodefill.app", fromName: "EcoDefill"}

	var sent *mail.SGMailV3
	sender.On("SendWithContext", ctx, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*mail.SGMailV3) }).
		Return(&rest.Response{StatusCode: 202}, nil).Once()

	require.NoError(t, svc.SendRegistrationStatusNotification(ctx, "juan@school.edu", "Juan", domain.RegistrationStatusApproved))
	require.NotNil(t, sent)
	assert.Equal(t, "Your EcoDefill registration was approved", sent.Subject)
	assert.Equal(t, "noreply@ecodefill.app", sent.From.Address)
	require.Len(t, sent.Personalizations, 1)
	assert.Equal(t, "juan@school.edu", sent.Personalizations[0].To[0].Address)

	sender.On("SendWithContext", ctx, mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil).Once()
	err := svc.SendRegistrationStatusNotification(ctx, "juan@school.edu", "Juan", domain.RegistrationStatusRejected)
	assert.ErrorContains(t, err, "status 401")
}

func TestEmailService_SendPendingDigest(t *testing.T) {
	ctx := context.Background()
	sender := new(MockMailSender)
	svc := &emailService{client: sender, from: "noreply@ecodefill.app", fromName: "EcoDefill"}
	sender.On("SendWithContext", ctx, mock.Anything).Return(&rest.Response{StatusCode: 202}, nil)

	pending := []domain.MemberView{{Name: "Ana <script>", StudentID: "2024-002", Course: "BSIT"}}
	require.NoError(t, svc.SendPendingDigest(ctx, []string{"a1@school.edu", "a2@school.edu"}, pending))
	sender.AssertNumberOfCalls(t, "SendWithContext", 2)

	subject, body := digestMessage(pending)
	assert.Equal(t, "1 EcoDefill registrations awaiting review", subject)
	assert.Contains(t, body, "2024-002")
}

func TestNewEmailService_WithoutKeyLogsOnly(t *testing.T) {
	svc := NewEmailService("", "noreply@ecodefill.app", "EcoDefill")
	assert.IsType(t, &logEmailService{}, svc)
	assert.NoError(t, svc.SendRegistrationStatusNotification(context.Background(), "a@b.c", "A", domain.RegistrationStatusApproved))
}
