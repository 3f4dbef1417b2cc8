package postgres

import (
	"context"
	"database/sql"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

const profileColumns = `uid, name, email, student_id, course, role, created_at`

type profileRepository struct {
	db *sql.DB
	n  *notifier
}

func NewProfileRepository(db *sql.DB, n *notifier) repository.ProfileRepository {
	return &profileRepository{db: db, n: n}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.StoreCall("insert", "profiles", "uid", p.UID)
	_, err := r.db.ExecContext(ctx, query, p.UID, p.Name, p.Email, p.StudentID, p.Course, string(p.Role), nullTime(p.CreatedAt))
	logger.StoreResult("insert", "profiles", err)
	return mapError(err)
}

func (r *profileRepository) GetByID(ctx context.Context, uid string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE uid = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, uid string, role domain.Role) error {
	logger.StoreCall("update", "profiles", "uid", uid, "role", role)
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET role = $1 WHERE uid = $2`, string(role), uid)
	if err == nil {
		err = expectOneRow(res)
	}
	logger.StoreResult("update", "profiles", err)
	return err
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = $1 ORDER BY uid`
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *profileRepository) SubscribeByRole(ctx context.Context, role domain.Role, handler repository.ProfileSnapshotHandler) (repository.Subscription, error) {
	list := func(ctx context.Context) ([]domain.Profile, error) { return r.ListByRole(ctx, role) }
	return r.n.subscribe(ctx, channelProfiles, snapshotLoader[domain.Profile](list, handler)), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p         domain.Profile
		role      string
		createdAt sql.NullTime
	)
	if err := row.Scan(&p.UID, &p.Name, &p.Email, &p.StudentID, &p.Course, &role, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	p.Role = parsed
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	return &p, nil
}
