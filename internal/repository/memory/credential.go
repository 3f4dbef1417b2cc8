package memory

import (
	"context"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type credentialRepository struct {
	db *db
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	key := normalizeEmail(cred.Email)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.credentials[key]; ok {
		return repository.ErrAlreadyExists
	}
	r.db.credentials[key] = *cred
	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	cred, ok := r.db.credentials[normalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cred, nil
}

func (r *credentialRepository) Delete(ctx context.Context, uid string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for key, cred := range r.db.credentials {
		if cred.UID == uid {
			delete(r.db.credentials, key)
			return nil
		}
	}
	return repository.ErrNotFound
}
