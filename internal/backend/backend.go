// Package backend selects and constructs the storage backend from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"expenses/internal/config"
	"expenses/internal/storage"
	"expenses/internal/store"
	"expenses/internal/store/memory"
)

// Type identifies a storage backend.
type Type string

const (
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
	Memory   Type = "memory"
)

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Postgres, Memory:
		return true
	default:
		return false
	}
}

func (t Type) String() string { return string(t) }

// Result holds the opened store and a cleanup to run at shutdown.
type Result struct {
	Store   store.Store
	Cleanup func() error
}

// Factory opens stores based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open creates the store named by cfg.DataBackend.
func (f *Factory) Open(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Postgres:
		repo, err := storage.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	default:
		st := memory.New()
		f.logger.Info("Initialized memory backend")
		return &Result{Store: st, Cleanup: st.Close}, nil
	}
}
