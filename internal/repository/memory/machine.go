package memory

import (
	"context"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/repository"
)

type machineRepository struct {
	db *db
}

func (r *machineRepository) List(ctx context.Context) ([]domain.Machine, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.Machine, 0, len(r.db.machines))
	for _, id := range sortedKeys(r.db.machines) {
		out = append(out, r.db.machines[id])
	}
	return out, nil
}

func (r *machineRepository) Subscribe(ctx context.Context, handler repository.MachineSnapshotHandler) (repository.Subscription, error) {
	return r.db.machineFeed.subscribe(ctx, func() {
		machines, _ := r.List(ctx)
		handler(machines, nil)
	}), nil
}
