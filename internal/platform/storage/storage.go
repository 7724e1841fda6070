// Package storage opens the journal snapshot store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/buchungsjournal/internal/adapters/database/mongo"
	"github.com/SscSPs/buchungsjournal/internal/adapters/database/pgsql"
	"github.com/SscSPs/buchungsjournal/internal/adapters/filestore"
	"github.com/SscSPs/buchungsjournal/internal/adapters/memory"
	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
	"github.com/SscSPs/buchungsjournal/internal/platform/config"
	"github.com/SscSPs/buchungsjournal/pkg/database"
)

// OpenRepositories connects to the configured backend. Postgres migrations are
// applied before the repository is handed out.
func OpenRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, error) {
	logger = logger.With(slog.String("storage_backend", cfg.StorageBackend))

	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory journal storage, entries are lost on exit")
		return portsrepo.RepositoryProvider{JournalRepo: memory.NewJournalMemoryStore()}, nil

	case config.BackendFile:
		store, err := filestore.NewJournalFileStore(cfg.DataDir)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		logger.Info("Using file journal storage", slog.String("path", store.Path()))
		return portsrepo.RepositoryProvider{JournalRepo: store}, nil

	case config.BackendPostgres:
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		return portsrepo.RepositoryProvider{
			JournalRepo: pgsql.NewJournalSnapshotRepository(pool),
			Close: func(context.Context) error {
				database.ClosePgxPool(pool)
				return nil
			},
		}, nil

	case config.BackendMongo:
		mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		return portsrepo.RepositoryProvider{
			JournalRepo: mongo.NewJournalSnapshotRepository(mongoDB.Collection(mongo.SnapshotCollectionName)),
			Close:       mongoDB.Close,
		}, nil
	}

	return portsrepo.RepositoryProvider{}, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
