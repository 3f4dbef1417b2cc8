package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/security"
)

type authService struct {
	profiles      repository.ProfileRepository
	registrations repository.RegistrationRepository
	provider      identity.Provider
	sessions      *security.SessionManager
	cfg           config.RegistrationConfig
	now           func() time.Time
}

func NewAuthService(
	profiles repository.ProfileRepository,
	registrations repository.RegistrationRepository,
	provider identity.Provider,
	sessions *security.SessionManager,
	cfg config.RegistrationConfig,
) AuthService {
	return &authService{
		profiles:      profiles,
		registrations: registrations,
		provider:      provider,
		sessions:      sessions,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *authService) RegisterStudent(ctx context.Context, req RegisterRequest) (*domain.Profile, *security.Session, error) {
	logger.EnterMethod("authService.RegisterStudent", "email", req.Email, "course", req.Course)

	if err := s.validateRegistration(&req); err != nil {
		logger.ExitMethodWithError("authService.RegisterStudent", err, "email", req.Email)
		return nil, nil, err
	}

	acct, err := s.provider.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		logger.ExitMethodWithError("authService.RegisterStudent", err, "email", req.Email)
		return nil, nil, err
	}

	now := s.now()
	profile := &domain.Profile{
		UID:       acct.UID,
		Name:      req.FullName,
		Email:     acct.Email,
		StudentID: req.StudentID,
		Course:    req.Course,
		Role:      domain.RoleStudent,
		CreatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.provider.Delete(ctx, acct.UID); delErr != nil {
			logger.Error("Failed to roll back account after profile write failed", "uid", acct.UID, "error", delErr)
		}
		err = fmt.Errorf("failed to create profile: %w", err)
		logger.ExitMethodWithError("authService.RegisterStudent", err, "uid", acct.UID)
		return nil, nil, err
	}

	// A missing record still reads as pending, so a failure here is not fatal.
	rec := &domain.RegistrationRecord{
		UID:          acct.UID,
		StudentID:    req.StudentID,
		Course:       req.Course,
		Status:       domain.RegistrationStatusPending,
		RegisteredAt: now,
	}
	if err := s.registrations.Create(ctx, rec); err != nil {
		logger.Warn("Failed to create registration record", "uid", acct.UID, "error", err)
	}

	session, err := s.sessions.Create(acct.UID, acct.Email, domain.RoleStudent)
	if err != nil {
		logger.ExitMethodWithError("authService.RegisterStudent", err, "uid", acct.UID)
		return nil, nil, err
	}
	logger.ExitMethod("authService.RegisterStudent", "uid", acct.UID)
	return profile, session, nil
}

func (s *authService) validateRegistration(req *RegisterRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Email = strings.TrimSpace(req.Email)
	req.Course = strings.TrimSpace(req.Course)

	switch {
	case req.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	case req.StudentID == "":
		return fmt.Errorf("%w: student id is required", ErrInvalidInput)
	case len(req.Password) < identity.MinPasswordLength:
		return identity.ErrWeakPassword
	case !slices.Contains(s.cfg.Courses, req.Course):
		return fmt.Errorf("%w: course %q is not offered", ErrInvalidInput, req.Course)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}
	return nil
}

func (s *authService) StudentLogin(ctx context.Context, email, password string) (*domain.Profile, *security.Session, error) {
	logger.EnterMethod("authService.StudentLogin", "email", email)
	profile, err := s.signIn(ctx, email, password)
	if err != nil {
		logger.ExitMethodWithError("authService.StudentLogin", err, "email", email)
		return nil, nil, err
	}
	if profile.IsAdmin() {
		logger.ExitMethodWithError("authService.StudentLogin", ErrAdminPortalOnly, "uid", profile.UID)
		return nil, nil, ErrAdminPortalOnly
	}

	session, err := s.sessions.Create(profile.UID, profile.Email, domain.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("authService.StudentLogin", "uid", profile.UID)
	return profile, session, nil
}

func (s *authService) AdminLogin(ctx context.Context, email, password string) (*domain.Profile, *security.Session, error) {
	logger.EnterMethod("authService.AdminLogin", "email", email)
	profile, err := s.signIn(ctx, email, password)
	if errors.Is(err, ErrProfileNotFound) {
		err = ErrAdminRequired
	}
	if err != nil {
		logger.ExitMethodWithError("authService.AdminLogin", err, "email", email)
		return nil, nil, err
	}
	if !profile.IsAdmin() {
		logger.ExitMethodWithError("authService.AdminLogin", ErrAdminRequired, "uid", profile.UID)
		return nil, nil, ErrAdminRequired
	}

	session, err := s.sessions.Create(profile.UID, profile.Email, domain.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("authService.AdminLogin", "uid", profile.UID)
	return profile, session, nil
}

func (s *authService) signIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	acct, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByID(ctx, acct.UID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.Email == "" {
		profile.Email = acct.Email
	}
	return profile, nil
}

func (s *authService) Logout(ctx context.Context, session *security.Session) error {
	if session == nil {
		return nil
	}
	s.sessions.Revoke(session)
	logger.Info("Session signed out", "uid", session.UserID)
	return nil
}

func (s *authService) PromoteToAdmin(ctx context.Context, session *security.Session) (*security.Session, error) {
	logger.EnterMethod("authService.PromoteToAdmin", "uid", session.UserID)
	if !s.cfg.AllowAdminSetup {
		logger.ExitMethodWithError("authService.PromoteToAdmin", ErrAdminSetupDisabled, "uid", session.UserID)
		return nil, ErrAdminSetupDisabled
	}

	err := s.profiles.UpdateRole(ctx, session.UserID, domain.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		err = ErrProfileNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("authService.PromoteToAdmin", err, "uid", session.UserID)
		return nil, err
	}

	s.sessions.Revoke(session)
	next, err := s.sessions.Create(session.UserID, session.Email, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("authService.PromoteToAdmin", "uid", session.UserID)
	return next, nil
}
