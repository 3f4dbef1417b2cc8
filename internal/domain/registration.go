package domain

import (
	"fmt"
	"time"
)

type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

// NotAvailable fills record fields that could not be copied from the profile.
const NotAvailable = "N/A"

func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	switch st := RegistrationStatus(s); st {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown registration status %q", s)
}

// CanTransitionTo reports whether a record in status s may move to next.
// Approved and rejected only go back to pending; there is no direct hop between them.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case RegistrationStatusPending:
		return next == RegistrationStatusApproved || next == RegistrationStatusRejected
	case RegistrationStatusApproved, RegistrationStatusRejected:
		return next == RegistrationStatusPending
	}
	return false
}

// RegistrationRecord is the approval workflow state of a profile, keyed by the
// profile's UID.
type RegistrationRecord struct {
	UID          string             `json:"uid"`
	StudentID    string             `json:"student_id"`
	Course       string             `json:"course"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
}

// NewRegistrationRecord builds the record written when none exists yet for the
// profile. Missing student id or course become NotAvailable.
func NewRegistrationRecord(p Profile, status RegistrationStatus, now time.Time) *RegistrationRecord {
	return &RegistrationRecord{
		UID:          p.UID,
		StudentID:    orNotAvailable(p.StudentID),
		Course:       orNotAvailable(p.Course),
		Status:       status,
		RegisteredAt: now,
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
