package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

type machineRepository struct {
	client *firestore.Client
}

func NewMachineRepository(client *firestore.Client) repository.MachineRepository {
	return &machineRepository{client: client}
}

func (r *machineRepository) List(ctx context.Context) ([]domain.Machine, error) {
	logger.StoreCall("list", machinesCollection)
	docs, err := r.client.Collection(machinesCollection).Documents(ctx).GetAll()
	logger.StoreResult("list", machinesCollection, err)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Machine](machinesCollection, docs, decodeMachine), nil
}

func (r *machineRepository) Subscribe(ctx context.Context, handler repository.MachineSnapshotHandler) (repository.Subscription, error) {
	return watch[domain.Machine](ctx, machinesCollection, r.client.Collection(machinesCollection).Query, decodeMachine, handler), nil
}
