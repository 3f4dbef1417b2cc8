package memory

import (
	"context"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type profileRepository struct {
	db *db
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	r.db.mu.Lock()
	if _, ok := r.db.profiles[profile.UID]; ok {
		r.db.mu.Unlock()
		return repository.ErrAlreadyExists
	}
	r.db.profiles[profile.UID] = *profile
	r.db.mu.Unlock()
	r.db.profileFeed.broadcast()
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, uid string) (*domain.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.profiles[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, uid string, role domain.Role) error {
	r.db.mu.Lock()
	p, ok := r.db.profiles[uid]
	if !ok {
		r.db.mu.Unlock()
		return repository.ErrNotFound
	}
	p.Role = role
	r.db.profiles[uid] = p
	r.db.mu.Unlock()
	r.db.profileFeed.broadcast()
	return nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []domain.Profile
	for _, uid := range sortedKeys(r.db.profiles) {
		if p := r.db.profiles[uid]; p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *profileRepository) SubscribeByRole(ctx context.Context, role domain.Role, handler repository.ProfileSnapshotHandler) (repository.Subscription, error) {
	return r.db.profileFeed.subscribe(ctx, func() {
		profiles, _ := r.ListByRole(ctx, role)
		handler(profiles, nil)
	}), nil
}
