package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-vault-local/internal/config"
	"github.com/MKhiriev/go-vault-local/internal/logger"
)

// Storages groups the client-side storage layer into a single value that can
// be passed around the service layer.
type Storages struct {
	// VaultRepository is the repository for credential entries and the
	// sync engine's persisted documents.
	VaultRepository VaultRepository

	// KeyValue is the raw persistence primitive the repository runs on.
	KeyValue KeyValue
}

// NewStorages initialises the storage layer using the supplied configuration
// and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [Storages] value wired to a fresh
//     [VaultRepository] over the SQLite [KeyValue].
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	kv := NewSQLiteKeyValue(db, logger)

	return &Storages{
		VaultRepository: NewVaultRepository(kv, logger),
		KeyValue:        kv,
	}, nil
}
