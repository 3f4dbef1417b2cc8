package memory

import (
	"context"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type registrationRepository struct {
	db *db
}

func (r *registrationRepository) Create(ctx context.Context, record *domain.RegistrationRecord) error {
	r.db.mu.Lock()
	if _, ok := r.db.registrations[record.UID]; ok {
		r.db.mu.Unlock()
		return repository.ErrAlreadyExists
	}
	r.db.registrations[record.UID] = *record
	r.db.mu.Unlock()
	r.db.registrationFeed.broadcast()
	return nil
}

func (r *registrationRepository) GetByID(ctx context.Context, uid string) (*domain.RegistrationRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rec, ok := r.db.registrations[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error {
	r.db.mu.Lock()
	rec, ok := r.db.registrations[uid]
	if !ok {
		r.db.mu.Unlock()
		return repository.ErrNotFound
	}
	rec.Status = status
	r.db.registrations[uid] = rec
	r.db.mu.Unlock()
	r.db.registrationFeed.broadcast()
	return nil
}

func (r *registrationRepository) List(ctx context.Context) ([]domain.RegistrationRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.RegistrationRecord, 0, len(r.db.registrations))
	for _, uid := range sortedKeys(r.db.registrations) {
		out = append(out, r.db.registrations[uid])
	}
	return out, nil
}

func (r *registrationRepository) Subscribe(ctx context.Context, handler repository.RegistrationSnapshotHandler) (repository.Subscription, error) {
	return r.db.registrationFeed.subscribe(ctx, func() {
		records, _ := r.List(ctx)
		handler(records, nil)
	}), nil
}
