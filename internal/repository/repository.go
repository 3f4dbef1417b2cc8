package repository

import (
	"context"
	"errors"

	"ecodefill-backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Subscription is the handle returned by every Subscribe call. Unsubscribe blocks
// until the handler can no longer be invoked and is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Snapshot handlers receive the complete current result set on every change.
// A non-nil error ends the stream: no further calls follow it.
type (
	ProfileSnapshotHandler      func(profiles []domain.Profile, err error)
	RegistrationSnapshotHandler func(records []domain.RegistrationRecord, err error)
	MachineSnapshotHandler      func(machines []domain.Machine, err error)
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, uid string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, uid string, role domain.Role) error
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error)
	SubscribeByRole(ctx context.Context, role domain.Role, handler ProfileSnapshotHandler) (Subscription, error)
}

type RegistrationRepository interface {
	// Create fails with ErrAlreadyExists when a record for the UID is present.
	Create(ctx context.Context, record *domain.RegistrationRecord) error
	GetByID(ctx context.Context, uid string) (*domain.RegistrationRecord, error)
	// UpdateStatus changes only the status field of an existing record.
	UpdateStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error
	List(ctx context.Context) ([]domain.RegistrationRecord, error)
	Subscribe(ctx context.Context, handler RegistrationSnapshotHandler) (Subscription, error)
}

type MachineRepository interface {
	List(ctx context.Context) ([]domain.Machine, error)
	Subscribe(ctx context.Context, handler MachineSnapshotHandler) (Subscription, error)
}

// CredentialRepository backs the local identity provider.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Delete(ctx context.Context, uid string) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Profiles      ProfileRepository
	Registrations RegistrationRepository
	Machines      MachineRepository
	Credentials   CredentialRepository // nil for backends without local credentials
	closeFn       func() error
}

func NewStore(profiles ProfileRepository, registrations RegistrationRepository, machines MachineRepository, credentials CredentialRepository, closeFn func() error) *Store {
	return &Store{
		Profiles:      profiles,
		Registrations: registrations,
		Machines:      machines,
		Credentials:   credentials,
		closeFn:       closeFn,
	}
}

// Close releases the backend's connections.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
