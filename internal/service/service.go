package service

import (
	"context"
	"errors"
	"time"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/security"
	"ecodefill-backend/internal/telemetry"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProfileNotFound    = errors.New("User profile not found. Please register as a student.")
	ErrAdminPortalOnly    = errors.New("This portal is for students only. Please use the admin login.")
	ErrAdminRequired      = errors.New("access denied: administrator account required")
	ErrAdminSetupDisabled = errors.New("admin setup is disabled")
)

// RegisterRequest is the student sign-up form.
type RegisterRequest struct {
	FullName  string `json:"full_name"`
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Course    string `json:"course"`
}

// StudentDashboard is what a signed-in student sees about their own account.
type StudentDashboard struct {
	Profile      domain.Profile            `json:"profile"`
	Status       domain.RegistrationStatus `json:"status"`
	StudentID    string                    `json:"student_id"`
	Course       string                    `json:"course"`
	RegisteredAt *time.Time                `json:"registered_at,omitempty"`
}

type AuthService interface {
	RegisterStudent(ctx context.Context, req RegisterRequest) (*domain.Profile, *security.Session, error)
	StudentLogin(ctx context.Context, email, password string) (*domain.Profile, *security.Session, error)
	AdminLogin(ctx context.Context, email, password string) (*domain.Profile, *security.Session, error)
	Logout(ctx context.Context, session *security.Session) error
	// PromoteToAdmin makes the session's own profile an admin and returns a
	// replacement session carrying the new role.
	PromoteToAdmin(ctx context.Context, session *security.Session) (*security.Session, error)
}

type StudentService interface {
	Dashboard(ctx context.Context, uid string) (*StudentDashboard, error)
}

type AdminService interface {
	Members(ctx context.Context) roster.State
	WatchMembers(fn func(roster.State)) (cancel func())
	SetRegistrationStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error
	MachineStats(ctx context.Context) telemetry.State
}

type EmailService interface {
	SendRegistrationStatusNotification(ctx context.Context, email, name string, status domain.RegistrationStatus) error
	SendPendingDigest(ctx context.Context, to []string, pending []domain.MemberView) error
}

// Roster is the live member list the admin service acts on.
type Roster interface {
	State() roster.State
	Watch(fn func(roster.State)) (cancel func())
	ChangeStatus(ctx context.Context, uid string, status domain.RegistrationStatus) (roster.Outcome, error)
}

// Telemetry is the live machine totals view.
type Telemetry interface {
	State() telemetry.State
}
