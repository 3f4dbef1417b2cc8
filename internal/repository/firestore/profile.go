package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
)

type profileRepository struct {
	client *firestore.Client
}

func NewProfileRepository(client *firestore.Client) repository.ProfileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) col() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	logger.StoreCall("create", usersCollection, "uid", p.UID)
	_, err := r.col().Doc(p.UID).Create(ctx, newUserDocument(p))
	logger.StoreResult("create", usersCollection, err)
	return mapError(err)
}

func (r *profileRepository) GetByID(ctx context.Context, uid string) (*domain.Profile, error) {
	logger.StoreCall("get", usersCollection, "uid", uid)
	snap, err := r.col().Doc(uid).Get(ctx)
	logger.StoreResult("get", usersCollection, err)
	if err != nil {
		return nil, mapError(err)
	}
	p, err := decodeProfile(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", uid, err)
	}
	return &p, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, uid string, role domain.Role) error {
	logger.StoreCall("update", usersCollection, "uid", uid, "role", role)
	_, err := r.col().Doc(uid).Update(ctx, []firestore.Update{{Path: "role", Value: string(role)}})
	logger.StoreResult("update", usersCollection, err)
	return mapError(err)
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	logger.StoreCall("list", usersCollection, "role", role)
	iter := r.byRole(role).Documents(ctx)
	defer iter.Stop()

	var out []domain.Profile
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.StoreResult("list", usersCollection, err)
			return nil, err
		}
		p, err := decodeProfile(snap.Ref.ID, snap.Data())
		if err != nil {
			logger.Warn("Skipping malformed profile", "uid", snap.Ref.ID, "error", err)
			continue
		}
		out = append(out, p)
	}
	logger.StoreResult("list", usersCollection, nil, "count", len(out))
	return out, nil
}

func (r *profileRepository) SubscribeByRole(ctx context.Context, role domain.Role, handler repository.ProfileSnapshotHandler) (repository.Subscription, error) {
	return watch[domain.Profile](ctx, usersCollection, r.byRole(role), decodeProfile, handler), nil
}

func (r *profileRepository) byRole(role domain.Role) firestore.Query {
	return r.col().Where("role", "==", string(role))
}
