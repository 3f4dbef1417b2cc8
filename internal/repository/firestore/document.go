package firestore

import (
	"fmt"
	"math"
	"time"

	"ecodefill-backend/internal/domain"
)

// Documents are written with the field names the web client uses. Reads go
// through decode functions instead of DataTo because the client stores numbers
// as either integers or doubles and some older documents lack fields.

type userDocument struct {
	UID       string    `firestore:"uid"`
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	Role      string    `firestore:"role"`
	StudentID string    `firestore:"studentId"`
	Course    string    `firestore:"course,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type registrationDocument struct {
	UserID           string    `firestore:"userId"`
	StudentID        string    `firestore:"studentId"`
	Course           string    `firestore:"course"`
	Status           string    `firestore:"status"`
	RegistrationDate time.Time `firestore:"registrationDate"`
}

func newUserDocument(p *domain.Profile) userDocument {
	return userDocument{
		UID:       p.UID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      string(p.Role),
		StudentID: p.StudentID,
		Course:    p.Course,
		CreatedAt: p.CreatedAt,
	}
}

func newRegistrationDocument(r *domain.RegistrationRecord) registrationDocument {
	return registrationDocument{
		UserID:           r.UID,
		StudentID:        r.StudentID,
		Course:           r.Course,
		Status:           string(r.Status),
		RegistrationDate: r.RegisteredAt,
	}
}

// decodeProfile reads a users document. The document id is the uid and a
// missing createdAt stays zero. A missing role reads as student on point reads;
// the role-filtered stream never delivers such documents.
func decodeProfile(id string, data map[string]interface{}) (domain.Profile, error) {
	role, err := domain.ParseRole(stringField(data, "role"))
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		UID:       id,
		Name:      stringField(data, "name"),
		Email:     stringField(data, "email"),
		StudentID: stringField(data, "studentId"),
		Course:    stringField(data, "course"),
		Role:      role,
		CreatedAt: timeField(data, "createdAt"),
	}, nil
}

// decodeRegistration reads a registrations document keyed by uid. A missing
// status means the record was never decided.
func decodeRegistration(id string, data map[string]interface{}) (domain.RegistrationRecord, error) {
	raw := stringField(data, "status")
	if raw == "" {
		raw = string(domain.RegistrationStatusPending)
	}
	st, err := domain.ParseRegistrationStatus(raw)
	if err != nil {
		return domain.RegistrationRecord{}, err
	}
	return domain.RegistrationRecord{
		UID:          id,
		StudentID:    stringField(data, "studentId"),
		Course:       stringField(data, "course"),
		Status:       st,
		RegisteredAt: timeField(data, "registrationDate"),
	}, nil
}

// decodeMachine reads a machines document. Missing counters count as zero.
func decodeMachine(id string, data map[string]interface{}) (domain.Machine, error) {
	bottles, err := intField(data, "bottleCount")
	if err != nil {
		return domain.Machine{}, err
	}
	cups, err := intField(data, "cupCount")
	if err != nil {
		return domain.Machine{}, err
	}
	weight, err := floatField(data, "wasteWeight")
	if err != nil {
		return domain.Machine{}, err
	}
	return domain.Machine{ID: id, BottleCount: bottles, CupCount: cups, WasteWeight: weight}, nil
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func timeField(data map[string]interface{}, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func intField(data map[string]interface{}, key string) (int64, error) {
	switch v := data[key].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("field %s is not a finite number", key)
		}
		if v < math.MinInt64 || v >= -math.MinInt64 {
			return 0, fmt.Errorf("field %s is out of range", key)
		}
		return int64(v), nil
	}
	return 0, fmt.Errorf("field %s has unexpected type %T", key, data[key])
}

func floatField(data map[string]interface{}, key string) (float64, error) {
	switch v := data[key].(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("field %s has unexpected type %T", key, data[key])
}
