package service

import (
	"context"
	"errors"
	"fmt"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type studentService struct {
	profiles      repository.ProfileRepository
	registrations repository.RegistrationRepository
}

func NewStudentService(profiles repository.ProfileRepository, registrations repository.RegistrationRepository) StudentService {
	return &studentService{profiles: profiles, registrations: registrations}
}

// Dashboard reports the student's effective status, pending when no record
// exists yet.
func (s *studentService) Dashboard(ctx context.Context, uid string) (*StudentDashboard, error) {
	profile, err := s.profiles.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	d := &StudentDashboard{
		Profile:   *profile,
		Status:    domain.RegistrationStatusPending,
		StudentID: profile.StudentID,
		Course:    profile.Course,
	}

	rec, err := s.registrations.GetByID(ctx, uid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return d, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	d.Status = rec.Status
	if d.StudentID == "" && rec.StudentID != domain.NotAvailable {
		d.StudentID = rec.StudentID
	}
	if d.Course == "" && rec.Course != domain.NotAvailable {
		d.Course = rec.Course
	}
	if !rec.RegisteredAt.IsZero() {
		t := rec.RegisteredAt
		d.RegisteredAt = &t
	}
	return d, nil
}
