package roster

import (
	"sort"

	"ecodefill-backend/internal/domain"
)

// Merge joins profiles with their registration records. Every profile yields
// exactly one member; records without a profile are ignored. Members are ordered
// by creation time, newest first, with missing timestamps last and ties kept in
// input order.
//
// Student id and course come from the profile and fall back to the record's
// copy when the profile lacks them.
func Merge(profiles []domain.Profile, records []domain.RegistrationRecord) []domain.MemberView {
	byUID := make(map[string]domain.RegistrationRecord, len(records))
	for _, r := range records {
		byUID[r.UID] = r
	}

	members := make([]domain.MemberView, 0, len(profiles))
	for _, p := range profiles {
		m := domain.MemberView{
			UID:       p.UID,
			Name:      p.Name,
			Email:     p.Email,
			StudentID: p.StudentID,
			Course:    p.Course,
			Status:    domain.RegistrationStatusPending,
			CreatedAt: p.CreatedAt,
		}
		if rec, ok := byUID[p.UID]; ok {
			m.Status = rec.Status
			if m.StudentID == "" && rec.StudentID != domain.NotAvailable {
				m.StudentID = rec.StudentID
			}
			if m.Course == "" && rec.Course != domain.NotAvailable {
				m.Course = rec.Course
			}
		}
		members = append(members, m)
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].SortKey() > members[j].SortKey()
	})
	return members
}

// CountByStatus tallies members per effective status.
func CountByStatus(members []domain.MemberView) map[domain.RegistrationStatus]int {
	counts := make(map[domain.RegistrationStatus]int, 3)
	for _, m := range members {
		counts[m.Status]++
	}
	return counts
}
