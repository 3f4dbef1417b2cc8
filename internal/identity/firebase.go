package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"ecodefill-backend/internal/logger"
)

// FirebaseProvider creates accounts with the Admin SDK and verifies passwords
// through the Identity Toolkit REST API, which the Admin SDK does not expose.
type FirebaseProvider struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
}

func NewFirebaseProvider(ctx context.Context, client *auth.Client, apiKey string, opts ...option.ClientOption) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase api key is required for password sign-in")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	toolkit, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return &FirebaseProvider{auth: client, toolkit: toolkit}, nil
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	params := (&auth.UserToCreate{}).
		Email(strings.TrimSpace(email)).
		Password(password).
		DisplayName(displayName)

	logger.ExternalServiceCall("firebase-auth", "CreateUser", "email", email)
	user, err := p.auth.CreateUser(ctx, params)
	logger.ExternalServiceResult("firebase-auth", "CreateUser", err)
	if auth.IsEmailAlreadyExists(err) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &Account{UID: user.UID, Email: user.Email}, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}

	logger.ExternalServiceCall("identitytoolkit", "VerifyPassword", "email", email)
	resp, err := p.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	logger.ExternalServiceResult("identitytoolkit", "VerifyPassword", err)
	if err != nil {
		if isCredentialRejection(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	return &Account{UID: resp.LocalId, Email: resp.Email}, nil
}

func (p *FirebaseProvider) Delete(ctx context.Context, uid string) error {
	logger.ExternalServiceCall("firebase-auth", "DeleteUser", "uid", uid)
	err := p.auth.DeleteUser(ctx, uid)
	logger.ExternalServiceResult("firebase-auth", "DeleteUser", err)
	if auth.IsUserNotFound(err) {
		return nil
	}
	return err
}

// isCredentialRejection separates a wrong email/password from transport or
// quota failures. The REST API reports both as HTTP 400.
func isCredentialRejection(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, reason := range []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL"} {
		if strings.Contains(apiErr.Message, reason) {
			return true
		}
	}
	return false
}
