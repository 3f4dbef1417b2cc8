package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/repository/memory"
)

const seedYAML = `
accounts:
  - email: admin@school.edu
    password: adminpass1
    name: Admin
    role: admin
  - email: ana@school.edu
    password: studentpass
    name: Ana
    student_id: "2024-001"
    course: BSCS
    status: approved
    created_at: 300
  - email: ben@school.edu
    password: studentpass
    name: Ben
machines:
  - id: m1
    bottle_count: 10
    cup_count: 4
    waste_weight: 1.5
`

func TestParse_Validates(t *testing.T) {
	_, err := Parse([]byte("accounts:\n  - email: a@b.c\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("accounts:\n  - email: a@b.c\n    password: x\n    role: owner\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("accounts:\n  - email: a@b.c\n    password: x\n    status: maybe\n"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	data, err := Parse([]byte(seedYAML))
	require.NoError(t, err)

	ctx := context.Background()
	store := memory.NewStore()
	provider := identity.NewLocalProvider(store.Credentials, identity.WithBcryptCost(bcrypt.MinCost))
	now := time.Unix(1000, 0)

	res, err := Apply(ctx, store.Store, provider, store, data, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Accounts: 3, Machines: 1}, res)

	admins, err := store.Profiles.ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	students, err := store.Profiles.ListByRole(ctx, domain.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)

	records, err := store.Registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.RegistrationStatusApproved, records[0].Status)
	assert.Equal(t, "2024-001", records[0].StudentID)
	assert.Equal(t, time.Unix(300, 0), records[0].RegisteredAt)

	machines, err := store.Machines.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), domain.SumMachines(machines).Bottles)

	acct, err := provider.SignIn(ctx, "ana@school.edu", "studentpass")
	require.NoError(t, err)
	assert.Equal(t, records[0].UID, acct.UID)

	res, err = Apply(ctx, store.Store, provider, nil, data, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 3}, res)
}
