package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// NewStore builds the repositories over db. listener carries the NOTIFY
// events that drive Subscribe; closing the store closes both.
func NewStore(db *sql.DB, listener Listener) (*repository.Store, error) {
	n, err := newNotifier(listener)
	if err != nil {
		return nil, err
	}
	return repository.NewStore(
		NewProfileRepository(db, n),
		NewRegistrationRepository(db, n),
		NewMachineRepository(db, n),
		NewCredentialRepository(db),
		func() error {
			n.close()
			return db.Close()
		},
	), nil
}

// NewListener opens a pq listener that reconnects on its own and logs
// connection state changes.
func NewListener(connStr string) *pq.Listener {
	return pq.NewListener(connStr, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logger.Info("Change feed connected")
		case pq.ListenerEventDisconnected:
			logger.Warn("Change feed disconnected", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("Change feed reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("Change feed connection attempt failed", "error", err)
		}
	})
}

// Migrate creates tables and change triggers. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrAlreadyExists
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
