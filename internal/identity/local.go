package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

// LocalProvider keeps bcrypt password hashes in the configured store. It serves
// the memory and postgres backends.
type LocalProvider struct {
	creds repository.CredentialRepository
	cost  int
	now   func() time.Time
}

type LocalOption func(*LocalProvider)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) { p.cost = cost }
}

func NewLocalProvider(creds repository.CredentialRepository, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{creds: creds, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email = strings.TrimSpace(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &domain.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now(),
	}
	logger.StoreCall("create", "credentials", "email", email)
	err = p.creds.Create(ctx, cred)
	logger.StoreResult("create", "credentials", err)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}
	return &Account{UID: cred.UID, Email: cred.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	cred, err := p.creds.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Account{UID: cred.UID, Email: cred.Email}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, uid string) error {
	err := p.creds.Delete(ctx, uid)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}
