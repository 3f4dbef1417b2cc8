// Package memory is an in-process document store with live snapshots. It backs
// local development runs and tests.
package memory

import (
	"sort"
	"strings"
	"sync"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type db struct {
	mu            sync.RWMutex
	profiles      map[string]domain.Profile
	registrations map[string]domain.RegistrationRecord
	machines      map[string]domain.Machine
	credentials   map[string]domain.Credential // keyed by lower-cased email

	profileFeed      *feed
	registrationFeed *feed
	machineFeed      *feed
}

// Store exposes the memory repositories plus seeding helpers.
type Store struct {
	*repository.Store
	db *db
}

func NewStore() *Store {
	d := &db{
		profiles:         make(map[string]domain.Profile),
		registrations:    make(map[string]domain.RegistrationRecord),
		machines:         make(map[string]domain.Machine),
		credentials:      make(map[string]domain.Credential),
		profileFeed:      newFeed(),
		registrationFeed: newFeed(),
		machineFeed:      newFeed(),
	}
	return &Store{
		Store: repository.NewStore(
			&profileRepository{db: d},
			&registrationRepository{db: d},
			&machineRepository{db: d},
			&credentialRepository{db: d},
			nil,
		),
		db: d,
	}
}

// PutMachine inserts or replaces a machine document, as a machine reporting
// telemetry would.
func (s *Store) PutMachine(m domain.Machine) {
	s.db.mu.Lock()
	s.db.machines[m.ID] = m
	s.db.mu.Unlock()
	s.db.machineFeed.broadcast()
}

// DeleteProfile removes a profile document.
func (s *Store) DeleteProfile(uid string) {
	s.db.mu.Lock()
	delete(s.db.profiles, uid)
	s.db.mu.Unlock()
	s.db.profileFeed.broadcast()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
