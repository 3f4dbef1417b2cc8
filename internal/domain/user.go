package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent Role = "user"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role read from the store. An empty role is treated as a
// student, which is what registration writes.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Profile is a registered person as stored in the users collection.
// CreatedAt is zero when the store has no timestamp for the profile.
type Profile struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	StudentID string    `json:"student_id"`
	Course    string    `json:"course"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
