package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/roster"
)

// SendPendingDigest emails every admin the students still waiting for a decision
func (jr *JobRunner) SendPendingDigest() {
	jr.runWithRecovery("SendPendingDigest", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		sent, err := jr.sendPendingDigest(ctx)
		if err != nil {
			logger.Error("Failed to send pending digest", "error", err)
			return
		}
		logger.Info("Pending digest processed", "pending", sent)
	})
}

func (jr *JobRunner) sendPendingDigest(ctx context.Context) (int, error) {
	students, err := jr.store.Profiles.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return 0, fmt.Errorf("failed to list students: %w", err)
	}
	records, err := jr.store.Registrations.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list registrations: %w", err)
	}

	var pending []domain.MemberView
	for _, m := range roster.Merge(students, records) {
		if m.Status == domain.RegistrationStatusPending {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		logger.Info("No pending registrations; digest skipped")
		return 0, nil
	}

	admins, err := jr.store.Profiles.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("failed to list admins: %w", err)
	}
	var to []string
	for _, a := range admins {
		if a.Email != "" {
			to = append(to, a.Email)
		}
	}
	if len(to) == 0 {
		logger.Warn("Pending registrations but no admin email to notify", "pending", len(pending))
		return len(pending), nil
	}

	if err := jr.services.Email.SendPendingDigest(ctx, to, pending); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// BackfillRegistrations creates pending records for students that have none
func (jr *JobRunner) BackfillRegistrations() {
	jr.runWithRecovery("BackfillRegistrations", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		created, err := jr.backfillRegistrations(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to backfill registrations", "error", err, "created", created)
			return
		}
		logger.Info("Registrations backfilled", "created", created)
	})
}

func (jr *JobRunner) backfillRegistrations(ctx context.Context, now time.Time) (int, error) {
	students, err := jr.store.Profiles.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return 0, fmt.Errorf("failed to list students: %w", err)
	}
	records, err := jr.store.Registrations.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	have := make(map[string]struct{}, len(records))
	for _, r := range records {
		have[r.UID] = struct{}{}
	}

	created := 0
	for _, p := range students {
		if _, ok := have[p.UID]; ok {
			continue
		}
		rec := domain.NewRegistrationRecord(p, domain.RegistrationStatusPending, now)
		err := jr.store.Registrations.Create(ctx, rec)
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			// written by an admin decision since the listing
		case err != nil:
			return created, fmt.Errorf("failed to create registration for %s: %w", p.UID, err)
		default:
			created++
		}
	}
	return created, nil
}
