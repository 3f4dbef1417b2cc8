// Package firestore adapts the Cloud Firestore collections written by the
// EcoDefill web client (users, registrations, machines) to the repository
// interfaces.
package firestore

import (
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ecodefill-backend/internal/repository"
)

const (
	usersCollection         = "users"
	registrationsCollection = "registrations"
	machinesCollection      = "machines"
)

// NewStore wraps an open client. Credentials are nil: the Firebase identity
// provider owns passwords for this backend.
func NewStore(client *firestore.Client) *repository.Store {
	return repository.NewStore(
		NewProfileRepository(client),
		NewRegistrationRepository(client),
		NewMachineRepository(client),
		nil,
		client.Close,
	)
}

// mapError turns gRPC status codes into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", repository.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", repository.ErrAlreadyExists, err)
	}
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound || errors.Is(err, repository.ErrNotFound)
}
