// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
)

// StructuredConfig is the top-level configuration container for the vault
// application. It aggregates all sub-configurations and is populated by
// merging values from command-line flags, environment variables, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string and
	// the device identifier embedded in backup metadata.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds network settings for the remote record store and blob
	// transport.
	Remote Remote `envPrefix:"REMOTE_"`

	// Sync holds the sync-engine tunables.
	Sync Sync `envPrefix:"SYNC_"`

	// Backup holds backup/restore settings.
	Backup Backup `envPrefix:"BACKUP_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application
	// (e.g. "1.2.3"). Recorded in backup bundle metadata.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// DeviceID identifies this device in backup bundle metadata.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path (or ":memory:" in tests).
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote holds network settings for the outbound transport layer.
type Remote struct {
	// HTTPAddress is the base URL of the remote record store,
	// e.g. "https://vault.example.com".
	// Env: REMOTE_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the default timeout for outbound requests
	// (e.g. "15s").
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the sync-engine tunables.
type Sync struct {
	// AutoSync enables the periodic background sync job.
	// Env: SYNC_AUTO
	AutoSync bool `env:"AUTO"`

	// Interval is the background sync period (e.g. "5m").
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// RetryLimit is the number of failed replay attempts after which a
	// queued operation is dropped.
	// Env: SYNC_RETRY_LIMIT
	RetryLimit int `env:"RETRY_LIMIT"`

	// ConflictPolicy selects the conflict-resolution policy:
	// local_wins, remote_wins, latest_timestamp or manual.
	// Env: SYNC_CONFLICT_POLICY
	ConflictPolicy string `env:"CONFLICT_POLICY"`

	// MaxQueueLength bounds the pending-operation queue.
	// Env: SYNC_MAX_QUEUE_LENGTH
	MaxQueueLength int `env:"MAX_QUEUE_LENGTH"`
}

// Backup holds backup/restore settings.
type Backup struct {
	// Dir is the directory backup bundles are written to.
	// Env: BACKUP_DIR
	Dir string `env:"DIR"`
}

// Default values applied by validate for unset sync tunables.
const (
	defaultSyncInterval   = 5 * time.Minute
	defaultRetryLimit     = 3
	defaultMaxQueueLength = 100
	defaultRequestTimeout = 15 * time.Second
)

// SyncConfig converts the merged sync settings into the models value the
// sync engine consumes.
func (cfg *StructuredConfig) SyncConfig() models.SyncConfig {
	return models.SyncConfig{
		AutoSync:       cfg.Sync.AutoSync,
		Interval:       cfg.Sync.Interval,
		RetryLimit:     cfg.Sync.RetryLimit,
		Policy:         models.ConflictPolicy(cfg.Sync.ConflictPolicy),
		MaxQueueLength: cfg.Sync.MaxQueueLength,
	}
}

// GetStructuredConfig loads, merges, and validates the application
// configuration. Sources are merged in priority order: command-line flags,
// then environment variables, then the optional JSON file referenced by
// either of the first two.
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withFlags().
		withEnv().
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error building config: %w", err)
	}

	return cfg, nil
}
