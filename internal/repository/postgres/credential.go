package postgres

import (
	"context"
	"database/sql"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	query := `INSERT INTO credentials (uid, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, c.UID, c.Email, c.PasswordHash, c.CreatedAt)
	return mapError(err)
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	c := &domain.Credential{}
	query := `SELECT uid, email, password_hash, created_at FROM credentials WHERE LOWER(email) = LOWER($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&c.UID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *credentialRepository) Delete(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
