package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

type registrationRepository struct {
	client *firestore.Client
}

func NewRegistrationRepository(client *firestore.Client) repository.RegistrationRepository {
	return &registrationRepository{client: client}
}

func (r *registrationRepository) col() *firestore.CollectionRef {
	return r.client.Collection(registrationsCollection)
}

func (r *registrationRepository) Create(ctx context.Context, rec *domain.RegistrationRecord) error {
	logger.StoreCall("create", registrationsCollection, "uid", rec.UID, "status", rec.Status)
	_, err := r.col().Doc(rec.UID).Create(ctx, newRegistrationDocument(rec))
	logger.StoreResult("create", registrationsCollection, err)
	return mapError(err)
}

func (r *registrationRepository) GetByID(ctx context.Context, uid string) (*domain.RegistrationRecord, error) {
	logger.StoreCall("get", registrationsCollection, "uid", uid)
	snap, err := r.col().Doc(uid).Get(ctx)
	if isNotFound(err) {
		logger.StoreResult("get", registrationsCollection, nil, "found", false)
		return nil, repository.ErrNotFound
	}
	logger.StoreResult("get", registrationsCollection, err)
	if err != nil {
		return nil, err
	}
	rec, err := decodeRegistration(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, fmt.Errorf("invalid registration %s: %w", uid, err)
	}
	return &rec, nil
}

// UpdateStatus touches only the status field; Update fails with NotFound when
// the document is missing.
func (r *registrationRepository) UpdateStatus(ctx context.Context, uid string, st domain.RegistrationStatus) error {
	logger.StoreCall("update", registrationsCollection, "uid", uid, "status", st)
	_, err := r.col().Doc(uid).Update(ctx, []firestore.Update{{Path: "status", Value: string(st)}})
	logger.StoreResult("update", registrationsCollection, err)
	return mapError(err)
}

func (r *registrationRepository) List(ctx context.Context) ([]domain.RegistrationRecord, error) {
	logger.StoreCall("list", registrationsCollection)
	docs, err := r.col().Documents(ctx).GetAll()
	logger.StoreResult("list", registrationsCollection, err)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.RegistrationRecord](registrationsCollection, docs, decodeRegistration), nil
}

func (r *registrationRepository) Subscribe(ctx context.Context, handler repository.RegistrationSnapshotHandler) (repository.Subscription, error) {
	return watch[domain.RegistrationRecord](ctx, registrationsCollection, r.col().Query, decodeRegistration, handler), nil
}
