package postgres

import (
	"context"
	"database/sql"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type machineRepository struct {
	db *sql.DB
	n  *notifier
}

func NewMachineRepository(db *sql.DB, n *notifier) repository.MachineRepository {
	return &machineRepository{db: db, n: n}
}

func (r *machineRepository) List(ctx context.Context) ([]domain.Machine, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, bottle_count, cup_count, waste_weight FROM machines ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.BottleCount, &m.CupCount, &m.WasteWeight); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *machineRepository) Subscribe(ctx context.Context, handler repository.MachineSnapshotHandler) (repository.Subscription, error) {
	return r.n.subscribe(ctx, channelMachines, snapshotLoader[domain.Machine](r.List, handler)), nil
}
