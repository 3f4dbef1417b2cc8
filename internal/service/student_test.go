package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

func TestStudentService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults To Pending", func(t *testing.T) {
		profiles, regs := new(MockProfileRepo), new(MockRegistrationRepo)
		svc := NewStudentService(profiles, regs)
		profiles.On("GetByID", ctx, "u1").Return(&domain.Profile{UID: "u1", StudentID: "2024-001"}, nil)
		regs.On("GetByID", ctx, "u1").Return(nil, repository.ErrNotFound)

		d, err := svc.Dashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusPending, d.Status)
		assert.Equal(t, "2024-001", d.StudentID)
		assert.Nil(t, d.RegisteredAt)
	})

	t.Run("Record Fills Course", func(t *testing.T) {
		profiles, regs := new(MockProfileRepo), new(MockRegistrationRepo)
		svc := NewStudentService(profiles, regs)
		registered := time.Unix(1700000000, 0)
		profiles.On("GetByID", ctx, "u1").Return(&domain.Profile{UID: "u1", StudentID: "2024-001"}, nil)
		regs.On("GetByID", ctx, "u1").Return(&domain.RegistrationRecord{
			UID: "u1", Course: "BSIT", StudentID: "2024-001", Status: domain.RegistrationStatusApproved, RegisteredAt: registered,
		}, nil)

		d, err := svc.Dashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationStatusApproved, d.Status)
		assert.Equal(t, "BSIT", d.Course)
		require.NotNil(t, d.RegisteredAt)
		assert.Equal(t, registered, *d.RegisteredAt)
	})

	t.Run("Missing Profile", func(t *testing.T) {
		profiles, regs := new(MockProfileRepo), new(MockRegistrationRepo)
		svc := NewStudentService(profiles, regs)
		profiles.On("GetByID", ctx, "ghost").Return(nil, repository.ErrNotFound)

		_, err := svc.Dashboard(ctx, "ghost")
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("Registration Read Failure", func(t *testing.T) {
		profiles, regs := new(MockProfileRepo), new(MockRegistrationRepo)
		svc := NewStudentService(profiles, regs)
		profiles.On("GetByID", ctx, "u1").Return(&domain.Profile{UID: "u1"}, nil)
		regs.On("GetByID", ctx, "u1").Return(nil, assert.AnError)

		_, err := svc.Dashboard(ctx, "u1")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
