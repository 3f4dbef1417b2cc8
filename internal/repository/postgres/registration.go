package postgres

import (
	"context"
	"database/sql"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

const registrationColumns = `uid, student_id, course, status, registered_at`

type registrationRepository struct {
	db *sql.DB
	n  *notifier
}

func NewRegistrationRepository(db *sql.DB, n *notifier) repository.RegistrationRepository {
	return &registrationRepository{db: db, n: n}
}

func (r *registrationRepository) Create(ctx context.Context, rec *domain.RegistrationRecord) error {
	query := `INSERT INTO registrations (` + registrationColumns + `) VALUES ($1, $2, $3, $4, $5)`
	logger.StoreCall("insert", "registrations", "uid", rec.UID, "status", rec.Status)
	_, err := r.db.ExecContext(ctx, query, rec.UID, rec.StudentID, rec.Course, string(rec.Status), nullTime(rec.RegisteredAt))
	logger.StoreResult("insert", "registrations", err)
	return mapError(err)
}

func (r *registrationRepository) GetByID(ctx context.Context, uid string) (*domain.RegistrationRecord, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE uid = $1`
	rec, err := scanRegistration(r.db.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, mapError(err)
	}
	return rec, nil
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, uid string, status domain.RegistrationStatus) error {
	logger.StoreCall("update", "registrations", "uid", uid, "status", status)
	res, err := r.db.ExecContext(ctx, `UPDATE registrations SET status = $1 WHERE uid = $2`, string(status), uid)
	if err == nil {
		err = expectOneRow(res)
	}
	logger.StoreResult("update", "registrations", err)
	return err
}

func (r *registrationRepository) List(ctx context.Context) ([]domain.RegistrationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RegistrationRecord
	for rows.Next() {
		rec, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *registrationRepository) Subscribe(ctx context.Context, handler repository.RegistrationSnapshotHandler) (repository.Subscription, error) {
	return r.n.subscribe(ctx, channelRegistrations, snapshotLoader[domain.RegistrationRecord](r.List, handler)), nil
}

func scanRegistration(row rowScanner) (*domain.RegistrationRecord, error) {
	var (
		rec          domain.RegistrationRecord
		status       string
		registeredAt sql.NullTime
	)
	if err := row.Scan(&rec.UID, &rec.StudentID, &rec.Course, &status, &registeredAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRegistrationStatus(status)
	if err != nil {
		return nil, err
	}
	rec.Status = parsed
	if registeredAt.Valid {
		rec.RegisteredAt = registeredAt.Time
	}
	return &rec, nil
}
