package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/security"
)

type authFixture struct {
	svc      *authService
	profiles *MockProfileRepo
	regs     *MockRegistrationRepo
	provider *MockProvider
	sessions *security.SessionManager
}

func newAuthFixture(allowSetup bool) *authFixture {
	f := &authFixture{
		profiles: new(MockProfileRepo),
		regs:     new(MockRegistrationRepo),
		provider: new(MockProvider),
		sessions: security.NewSessionManager(security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour), time.Hour),
	}
	f.svc = NewAuthService(f.profiles, f.regs, f.provider, f.sessions, config.RegistrationConfig{
		Courses:         config.DefaultCourses,
		AllowAdminSetup: allowSetup,
	}).(*authService)
	f.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		FullName:  " Juan Dela Cruz ",
		StudentID: "2024-001",
		Email:     "juan@school.edu",
		Password:  "correct-horse",
		Course:    "BSCS",
	}
}

func TestAuthService_RegisterStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignUp", ctx, "juan@school.edu", "correct-horse", "Juan Dela Cruz").
			Return(&identity.Account{UID: "u1", Email: "juan@school.edu"}, nil)
		f.profiles.On("Create", ctx, mock.MatchedBy(func(p *domain.Profile) bool {
			return p.UID == "u1" && p.Role == domain.RoleStudent && p.Course == "BSCS" && p.StudentID == "2024-001" && p.Name == "Juan Dela Cruz"
		})).Return(nil)
		f.regs.On("Create", ctx, mock.MatchedBy(func(r *domain.RegistrationRecord) bool {
			return r.UID == "u1" && r.Status == domain.RegistrationStatusPending && r.Course == "BSCS"
		})).Return(nil)

		profile, session, err := f.svc.RegisterStudent(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "u1", profile.UID)
		assert.Equal(t, time.Unix(1700000000, 0), profile.CreatedAt)
		assert.Equal(t, domain.RoleStudent, session.Role)
		f.profiles.AssertExpectations(t)
		f.regs.AssertExpectations(t)
	})

	t.Run("Validation Before Any Write", func(t *testing.T) {
		f := newAuthFixture(false)
		cases := map[string]func(r *RegisterRequest){
			"missing name":   func(r *RegisterRequest) { r.FullName = "  " },
			"missing id":     func(r *RegisterRequest) { r.StudentID = "" },
			"bad email":      func(r *RegisterRequest) { r.Email = "not-an-email" },
			"unknown course": func(r *RegisterRequest) { r.Course = "MBA" },
			"short password": func(r *RegisterRequest) { r.Password = "short" },
		}
		for name, mutate := range cases {
			req := validRequest()
			mutate(&req)
			_, _, err := f.svc.RegisterStudent(ctx, req)
			assert.Error(t, err, name)
		}
		f.provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Profile Failure Rolls Back Account", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignUp", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.Account{UID: "u2", Email: "juan@school.edu"}, nil)
		f.profiles.On("Create", ctx, mock.Anything).Return(assert.AnError)
		f.provider.On("Delete", ctx, "u2").Return(nil)

		_, _, err := f.svc.RegisterStudent(ctx, validRequest())
		assert.ErrorIs(t, err, assert.AnError)
		f.provider.AssertCalled(t, "Delete", ctx, "u2")
		f.regs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Registration Record Failure Is Tolerated", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignUp", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.Account{UID: "u3", Email: "juan@school.edu"}, nil)
		f.profiles.On("Create", ctx, mock.Anything).Return(nil)
		f.regs.On("Create", ctx, mock.Anything).Return(assert.AnError)

		_, session, err := f.svc.RegisterStudent(ctx, validRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
	})
}

func TestAuthService_StudentLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, "a@school.edu", "pw").Return(&identity.Account{UID: "u1", Email: "a@school.edu"}, nil)
		f.profiles.On("GetByID", ctx, "u1").Return(&domain.Profile{UID: "u1", Role: domain.RoleStudent}, nil)

		profile, session, err := f.svc.StudentLogin(ctx, "a@school.edu", "pw")
		require.NoError(t, err)
		assert.Equal(t, "a@school.edu", profile.Email)
		assert.Equal(t, "u1", session.UserID)
	})

	t.Run("Admin Rejected", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(&identity.Account{UID: "adm"}, nil)
		f.profiles.On("GetByID", ctx, "adm").Return(&domain.Profile{UID: "adm", Role: domain.RoleAdmin}, nil)

		_, _, err := f.svc.StudentLogin(ctx, "admin@school.edu", "pw")
		assert.ErrorIs(t, err, ErrAdminPortalOnly)
	})

	t.Run("Missing Profile", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(&identity.Account{UID: "ghost"}, nil)
		f.profiles.On("GetByID", ctx, "ghost").Return(nil, repository.ErrNotFound)

		_, _, err := f.svc.StudentLogin(ctx, "ghost@school.edu", "pw")
		assert.ErrorIs(t, err, ErrProfileNotFound)
		assert.Equal(t, "User profile not found. Please register as a student.", err.Error())
	})

	t.Run("Bad Password", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(nil, identity.ErrInvalidCredentials)

		_, _, err := f.svc.StudentLogin(ctx, "a@school.edu", "nope")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}

func TestAuthService_AdminLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Admin", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(&identity.Account{UID: "adm"}, nil)
		f.profiles.On("GetByID", ctx, "adm").Return(&domain.Profile{UID: "adm", Role: domain.RoleAdmin}, nil)

		_, session, err := f.svc.AdminLogin(ctx, "admin@school.edu", "pw")
		require.NoError(t, err)
		assert.True(t, session.IsAdmin())
	})

	t.Run("Student Denied", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(&identity.Account{UID: "u1"}, nil)
		f.profiles.On("GetByID", ctx, "u1").Return(&domain.Profile{UID: "u1", Role: domain.RoleStudent}, nil)

		_, _, err := f.svc.AdminLogin(ctx, "a@school.edu", "pw")
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("No Profile Denied", func(t *testing.T) {
		f := newAuthFixture(false)
		f.provider.On("SignIn", ctx, mock.Anything, mock.Anything).Return(&identity.Account{UID: "x"}, nil)
		f.profiles.On("GetByID", ctx, "x").Return(nil, repository.ErrNotFound)

		_, _, err := f.svc.AdminLogin(ctx, "x@school.edu", "pw")
		assert.ErrorIs(t, err, ErrAdminRequired)
	})
}

func TestAuthService_LogoutAndPromote(t *testing.T) {
	ctx := context.Background()

	t.Run("Logout Revokes", func(t *testing.T) {
		f := newAuthFixture(false)
		session, err := f.sessions.Create("u1", "a@school.edu", domain.RoleStudent)
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, session))
		_, err = f.sessions.Validate(session.Token)
		assert.ErrorIs(t, err, security.ErrSessionRevoked)
		assert.NoError(t, f.svc.Logout(ctx, nil))
	})

	t.Run("Promote Disabled", func(t *testing.T) {
		f := newAuthFixture(false)
		session, _ := f.sessions.Create("u1", "a@school.edu", domain.RoleStudent)

		_, err := f.svc.PromoteToAdmin(ctx, session)
		assert.ErrorIs(t, err, ErrAdminSetupDisabled)
		f.profiles.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Promote Enabled", func(t *testing.T) {
		f := newAuthFixture(true)
		session, _ := f.sessions.Create("u1", "a@school.edu", domain.RoleStudent)
		f.profiles.On("UpdateRole", ctx, "u1", domain.RoleAdmin).Return(nil)

		next, err := f.svc.PromoteToAdmin(ctx, session)
		require.NoError(t, err)
		assert.True(t, next.IsAdmin())

		_, err = f.sessions.Validate(session.Token)
		assert.ErrorIs(t, err, security.ErrSessionRevoked)
		_, err = f.sessions.Validate(next.Token)
		assert.NoError(t, err)
	})

	t.Run("Promote Without Profile", func(t *testing.T) {
		f := newAuthFixture(true)
		session, _ := f.sessions.Create("ghost", "", domain.RoleStudent)
		f.profiles.On("UpdateRole", ctx, "ghost", domain.RoleAdmin).Return(repository.ErrNotFound)

		_, err := f.svc.PromoteToAdmin(ctx, session)
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})
}
