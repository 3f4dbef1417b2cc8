// Package seed loads demo accounts and machines from a YAML file into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

type Account struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	StudentID string `yaml:"student_id"`
	Course    string `yaml:"course"`
	Role      string `yaml:"role"`
	// Status of the registration record; empty writes no record.
	Status    string `yaml:"status"`
	CreatedAt int64  `yaml:"created_at"` // seconds since epoch; 0 means now
}

type Machine struct {
	ID          string  `yaml:"id"`
	BottleCount int64   `yaml:"bottle_count"`
	CupCount    int64   `yaml:"cup_count"`
	WasteWeight float64 `yaml:"waste_weight"`
}

type Data struct {
	Accounts []Account `yaml:"accounts"`
	Machines []Machine `yaml:"machines"`
}

// MachineWriter is implemented by stores that accept telemetry writes from
// outside a machine.
type MachineWriter interface {
	PutMachine(m domain.Machine)
}

func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	for i, a := range data.Accounts {
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("account %d: email and password are required", i+1)
		}
		if _, err := domain.ParseRole(a.Role); err != nil {
			return nil, fmt.Errorf("account %s: %w", a.Email, err)
		}
		if a.Status != "" {
			if _, err := domain.ParseRegistrationStatus(a.Status); err != nil {
				return nil, fmt.Errorf("account %s: %w", a.Email, err)
			}
		}
	}
	return &data, nil
}

// Result counts what Apply wrote.
type Result struct {
	Accounts int
	Skipped  int
	Machines int
}

// Apply creates every account that does not exist yet. Accounts whose email is
// already registered are skipped, so a seed file can be applied repeatedly.
// Machines are written only when machines is non-nil.
func Apply(ctx context.Context, store *repository.Store, provider identity.Provider, machines MachineWriter, data *Data, now time.Time) (Result, error) {
	var res Result
	for i, a := range data.Accounts {
		logger.Info("Seeding account", "n", i+1, "of", len(data.Accounts), "email", a.Email)

		acct, err := provider.SignUp(ctx, a.Email, a.Password, a.Name)
		if errors.Is(err, identity.ErrEmailInUse) {
			logger.Info("Account exists; skipped", "email", a.Email)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to create account %s: %w", a.Email, err)
		}

		role, _ := domain.ParseRole(a.Role)
		created := now
		if a.CreatedAt > 0 {
			created = time.Unix(a.CreatedAt, 0)
		}
		profile := &domain.Profile{
			UID:       acct.UID,
			Name:      a.Name,
			Email:     acct.Email,
			StudentID: a.StudentID,
			Course:    a.Course,
			Role:      role,
			CreatedAt: created,
		}
		if err := store.Profiles.Create(ctx, profile); err != nil {
			return res, fmt.Errorf("failed to create profile %s: %w", a.Email, err)
		}

		if a.Status != "" {
			status, _ := domain.ParseRegistrationStatus(a.Status)
			rec := domain.NewRegistrationRecord(*profile, status, created)
			if err := store.Registrations.Create(ctx, rec); err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
				return res, fmt.Errorf("failed to create registration %s: %w", a.Email, err)
			}
		}
		res.Accounts++
	}

	if machines == nil {
		if len(data.Machines) > 0 {
			logger.Warn("Store does not accept machine writes; machines not seeded", "machines", len(data.Machines))
		}
		return res, nil
	}
	for _, m := range data.Machines {
		machines.PutMachine(domain.Machine{
			ID:          m.ID,
			BottleCount: m.BottleCount,
			CupCount:    m.CupCount,
			WasteWeight: m.WasteWeight,
		})
		res.Machines++
	}
	return res, nil
}
