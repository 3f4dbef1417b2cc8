package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistrationStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		st, err := ParseRegistrationStatus(s)
		require.NoError(t, err)
		assert.Equal(t, RegistrationStatus(s), st)
	}

	_, err := ParseRegistrationStatus("APPROVED")
	assert.Error(t, err)
	_, err = ParseRegistrationStatus("")
	assert.Error(t, err)
}

func TestRegistrationStatus_CanTransitionTo(t *testing.T) {
	pending, approved, rejected := RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected

	assert.True(t, pending.CanTransitionTo(approved))
	assert.True(t, pending.CanTransitionTo(rejected))
	assert.True(t, approved.CanTransitionTo(pending))
	assert.True(t, rejected.CanTransitionTo(pending))
	assert.True(t, approved.CanTransitionTo(approved))

	assert.False(t, approved.CanTransitionTo(rejected))
	assert.False(t, rejected.CanTransitionTo(approved))
	assert.False(t, RegistrationStatus("bogus").CanTransitionTo(pending))
}

func TestNewRegistrationRecord(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("CopiesProfileFields", func(t *testing.T) {
		rec := NewRegistrationRecord(Profile{UID: "u1", StudentID: "2024-001", Course: "BSCS"}, RegistrationStatusApproved, now)
		assert.Equal(t, "u1", rec.UID)
		assert.Equal(t, "2024-001", rec.StudentID)
		assert.Equal(t, "BSCS", rec.Course)
		assert.Equal(t, RegistrationStatusApproved, rec.Status)
		assert.Equal(t, now, rec.RegisteredAt)
	})

	t.Run("FallsBackToNotAvailable", func(t *testing.T) {
		rec := NewRegistrationRecord(Profile{UID: "u2"}, RegistrationStatusRejected, now)
		assert.Equal(t, NotAvailable, rec.StudentID)
		assert.Equal(t, NotAvailable, rec.Course)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, r)

	r, err = ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestMemberView_SortKey(t *testing.T) {
	assert.Equal(t, int64(0), MemberView{}.SortKey())
	assert.Equal(t, int64(300), MemberView{CreatedAt: time.Unix(300, 0)}.SortKey())
}

func TestSumMachines(t *testing.T) {
	stats := SumMachines([]Machine{
		{ID: "m1", BottleCount: 10, CupCount: 2, WasteWeight: 1.5},
		{ID: "m2", BottleCount: 5, WasteWeight: 0.25},
	})
	assert.Equal(t, 2, stats.Machines)
	assert.Equal(t, int64(15), stats.Bottles)
	assert.Equal(t, int64(2), stats.Cups)
	assert.InDelta(t, 1.75, stats.WasteKg, 1e-9)

	assert.Equal(t, MachineStats{}, SumMachines(nil))
}
