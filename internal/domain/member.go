package domain

import "time"

// MemberView joins a Profile with its RegistrationRecord. It is derived data and
// never persisted.
type MemberView struct {
	UID       string             `json:"uid"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	StudentID string             `json:"student_id"`
	Course    string             `json:"course"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// SortKey is the creation time in seconds, 0 when the profile has no timestamp.
func (m MemberView) SortKey() int64 {
	if m.CreatedAt.IsZero() {
		return 0
	}
	return m.CreatedAt.Unix()
}

func (m MemberView) Profile() Profile {
	return Profile{
		UID:       m.UID,
		Name:      m.Name,
		Email:     m.Email,
		StudentID: m.StudentID,
		Course:    m.Course,
		Role:      RoleStudent,
		CreatedAt: m.CreatedAt,
	}
}
