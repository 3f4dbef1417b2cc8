package service

import (
	"context"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/roster"
)

// MockProfileRepo
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockProfileRepo) GetByID(ctx context.Context, uid string) (*domain.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
func (m *MockProfileRepo) UpdateRole(ctx context.Context, uid string, role domain.Role) error {
	args := m.Called(ctx, uid, role)
	return args.Error(0)
}
func (m *MockProfileRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]domain.Profile), args.Error(1)
}
func (m *MockProfileRepo) SubscribeByRole(ctx context.Context, role domain.Role, h repository.ProfileSnapshotHandler) (repository.Subscription, error) {
	args := m.Called(ctx, role, h)
	return args.Get(0).(repository.Subscription), args.Error(1)
}

// MockRegistrationRepo
type MockRegistrationRepo struct {
	mock.Mock
}

func (m *MockRegistrationRepo) Create(ctx context.Context, rec *domain.RegistrationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockRegistrationRepo) GetByID(ctx context.Context, uid string) (*domain.RegistrationRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationRecord), args.Error(1)
}
func (m *MockRegistrationRepo) UpdateStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error {
	args := m.Called(ctx, uid, status)
	return args.Error(0)
}
func (m *MockRegistrationRepo) List(ctx context.Context) ([]domain.RegistrationRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RegistrationRecord), args.Error(1)
}
func (m *MockRegistrationRepo) Subscribe(ctx context.Context, h repository.RegistrationSnapshotHandler) (repository.Subscription, error) {
	args := m.Called(ctx, h)
	return args.Get(0).(repository.Subscription), args.Error(1)
}

// MockProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Account, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}
func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*identity.Account, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}
func (m *MockProvider) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRegistrationStatusNotification(ctx context.Context, email, name string, status domain.RegistrationStatus) error {
	args := m.Called(ctx, email, name, status)
	return args.Error(0)
}
func (m *MockEmailService) SendPendingDigest(ctx context.Context, to []string, pending []domain.MemberView) error {
	args := m.Called(ctx, to, pending)
	return args.Error(0)
}

// MockRoster
type MockRoster struct {
	mock.Mock
}

func (m *MockRoster) State() roster.State {
	args := m.Called()
	return args.Get(0).(roster.State)
}
func (m *MockRoster) Watch(fn func(roster.State)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}
func (m *MockRoster) ChangeStatus(ctx context.Context, uid string, status domain.RegistrationStatus) (roster.Outcome, error) {
	args := m.Called(ctx, uid, status)
	return args.Get(0).(roster.Outcome), args.Error(1)
}

// MockMailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}
