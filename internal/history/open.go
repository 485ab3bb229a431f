package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/database"
	"github.com/symptom-intake-server/internal/domain"
)

// Drivers accepted in history.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type pooledStore struct {
	*PostgresStore
	db *database.DB
}

func (s *pooledStore) Close() error {
	s.db.Close()
	return nil
}

// Open builds the store selected by cfg.History.Driver; an empty driver means
// memory. The postgres driver connects with cfg.Database, retrying while the
// server starts, and then applies migrations when auto_migrate is set.
func Open(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (Store, error) {
	limit := cfg.History.MaxEntries

	switch strings.ToLower(cfg.History.Driver) {
	case "", DriverMemory:
		logger.WithField("max_entries", maxEntries(limit)).Info("Using in-memory assessment history")
		return NewMemoryStore(limit), nil

	case DriverSQLite:
		store, err := NewSQLiteStore(cfg.History.SQLitePath, limit)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite history: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"path":        cfg.History.SQLitePath,
			"max_entries": store.limit,
		}).Info("Using SQLite assessment history")
		return store, nil

	case DriverPostgres:
		// Connect first so migrations run only once the database answers.
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting history database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, database.URL(cfg.Database), logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrating history database: %w", err)
			}
		}
		store, err := NewPostgresStore(db.Pool, limit)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &pooledStore{PostgresStore: store, db: db}, nil

	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}
}
