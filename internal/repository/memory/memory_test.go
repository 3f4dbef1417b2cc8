package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegistrationRepository_CRUD(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Registrations.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Registrations.UpdateStatus(ctx, "u1", domain.RegistrationStatusApproved), repository.ErrNotFound)

	rec := &domain.RegistrationRecord{UID: "u1", Course: "BSCS", StudentID: "2024-001", Status: domain.RegistrationStatusPending}
	require.NoError(t, store.Registrations.Create(ctx, rec))
	assert.ErrorIs(t, store.Registrations.Create(ctx, rec), repository.ErrAlreadyExists)

	require.NoError(t, store.Registrations.UpdateStatus(ctx, "u1", domain.RegistrationStatusApproved))
	got, err := store.Registrations.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusApproved, got.Status)
	assert.Equal(t, "BSCS", got.Course)
	assert.Equal(t, "2024-001", got.StudentID)
}

func TestProfileRepository_ListByRole(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Profiles.Create(ctx, &domain.Profile{UID: "b", Role: domain.RoleStudent}))
	require.NoError(t, store.Profiles.Create(ctx, &domain.Profile{UID: "a", Role: domain.RoleStudent}))
	require.NoError(t, store.Profiles.Create(ctx, &domain.Profile{UID: "admin", Role: domain.RoleAdmin}))

	students, err := store.Profiles.ListByRole(ctx, domain.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "a", students[0].UID)
	assert.Equal(t, "b", students[1].UID)

	require.NoError(t, store.Profiles.UpdateRole(ctx, "a", domain.RoleAdmin))
	admins, err := store.Profiles.ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestCredentialRepository_EmailIsCaseInsensitive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Credentials.Create(ctx, &domain.Credential{UID: "u1", Email: "John@School.edu", PasswordHash: "h"}))
	assert.ErrorIs(t, store.Credentials.Create(ctx, &domain.Credential{UID: "u2", Email: "john@school.edu"}), repository.ErrAlreadyExists)

	cred, err := store.Credentials.GetByEmail(ctx, " john@school.edu ")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.UID)

	require.NoError(t, store.Credentials.Delete(ctx, "u1"))
	_, err = store.Credentials.GetByEmail(ctx, "john@school.edu")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubscribe_DeliversSnapshotsUntilUnsubscribed(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	snapshots := make(chan []domain.RegistrationRecord, 16)
	sub, err := store.Registrations.Subscribe(ctx, func(records []domain.RegistrationRecord, err error) {
		assert.NoError(t, err)
		snapshots <- records
	})
	require.NoError(t, err)

	initial := receive(t, snapshots)
	assert.Empty(t, initial)

	require.NoError(t, store.Registrations.Create(ctx, &domain.RegistrationRecord{UID: "u1", Status: domain.RegistrationStatusPending}))
	assert.Eventually(t, func() bool {
		select {
		case s := <-snapshots:
			return len(s) == 1 && s[0].UID == "u1"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, store.Registrations.UpdateStatus(ctx, "u1", domain.RegistrationStatusApproved))
	select {
	case s := <-snapshots:
		t.Fatalf("unexpected snapshot after unsubscribe: %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeByRole_FiltersAndFollowsRoleChanges(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Profiles.Create(ctx, &domain.Profile{UID: "u1", Role: domain.RoleStudent}))
	require.NoError(t, store.Profiles.Create(ctx, &domain.Profile{UID: "boss", Role: domain.RoleAdmin}))

	snapshots := make(chan []domain.Profile, 16)
	sub, err := store.Profiles.SubscribeByRole(ctx, domain.RoleStudent, func(p []domain.Profile, err error) {
		snapshots <- p
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	first := receive(t, snapshots)
	require.Len(t, first, 1)
	assert.Equal(t, "u1", first[0].UID)

	require.NoError(t, store.Profiles.UpdateRole(ctx, "u1", domain.RoleAdmin))
	assert.Eventually(t, func() bool {
		select {
		case s := <-snapshots:
			return len(s) == 0
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestMachineSubscribe_StopsWithContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	store.PutMachine(domain.Machine{ID: "m1", BottleCount: 3})
	snapshots := make(chan []domain.Machine, 4)
	sub, err := store.Machines.Subscribe(ctx, func(m []domain.Machine, err error) {
		snapshots <- m
	})
	require.NoError(t, err)

	first := receive(t, snapshots)
	require.Len(t, first, 1)
	assert.Equal(t, int64(3), first[0].BottleCount)

	cancel()
	sub.Unsubscribe()
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}
