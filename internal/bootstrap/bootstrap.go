// Package bootstrap opens the configured store and identity provider. The API
// server, the cron runner and the seeder share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/repository/firestore"
	"ecodefill-backend/internal/repository/memory"
	"ecodefill-backend/internal/repository/postgres"
	"ecodefill-backend/internal/seed"
)

// Backend is an open store plus the pieces some callers need beyond the
// repositories.
type Backend struct {
	Store *repository.Store
	// Machines is set when the store accepts machine writes (memory only).
	Machines seed.MachineWriter

	cfg *config.Config
	app *firebase.App
}

func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{cfg: cfg}

	switch cfg.Store.Type {
	case config.StoreMemory:
		logger.Info("Using in-memory store")
		mem := memory.NewStore()
		b.Store = mem.Store
		b.Machines = mem

	case config.StorePostgres:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		connStr := cfg.GetDatabaseConnectionString()
		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		store, err := postgres.NewStore(db, postgres.NewListener(connStr))
		if err != nil {
			db.Close()
			return nil, err
		}
		b.Store = store

	case config.StoreFirestore:
		app, err := b.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open firestore: %w", err)
		}
		logger.Info("Using Firestore store", "project_id", cfg.Firebase.ProjectID)
		b.Store = firestore.NewStore(client)

	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
	return b, nil
}

// IdentityProvider returns the provider selected by identity.provider.
func (b *Backend) IdentityProvider(ctx context.Context) (identity.Provider, error) {
	switch b.cfg.Identity.Provider {
	case config.IdentityLocal:
		if b.Store.Credentials == nil {
			return nil, fmt.Errorf("store %s keeps no credentials for local identity", b.cfg.Store.Type)
		}
		return identity.NewLocalProvider(b.Store.Credentials), nil
	case config.IdentityFirebase:
		app, err := b.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
		}
		return identity.NewFirebaseProvider(ctx, client, b.cfg.Firebase.APIKey)
	}
	return nil, fmt.Errorf("unsupported identity provider: %s", b.cfg.Identity.Provider)
}

func (b *Backend) firebaseApp(ctx context.Context) (*firebase.App, error) {
	if b.app != nil {
		return b.app, nil
	}
	var opts []option.ClientOption
	if b.cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(b.cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: b.cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	b.app = app
	return app, nil
}

func (b *Backend) Close() error {
	return b.Store.Close()
}
