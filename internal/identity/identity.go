// Package identity authenticates email/password accounts. Profiles and roles
// live in the document store; a provider only knows credentials and uids.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email is already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// MinPasswordLength matches the registration form rule.
const MinPasswordLength = 8

// Account is what a provider knows about a signed-in identity.
type Account struct {
	UID   string
	Email string
}

type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Account, error)
	// Delete removes an account; used to roll back a half-finished registration.
	Delete(ctx context.Context, uid string) error
}
