// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "github.com/MKhiriev/go-vault-local/models"

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup, and fills in defaults
// for unset sync tunables.
//
// Returns nil if the configuration is valid, or one of the sentinel errors
// declared in errors.go otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Remote.RequestTimeout == 0 {
		cfg.Remote.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Remote.HTTPAddress == "" {
		return ErrInvalidRemoteConfigs
	}

	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = defaultSyncInterval
	}
	if cfg.Sync.RetryLimit == 0 {
		cfg.Sync.RetryLimit = defaultRetryLimit
	}
	if cfg.Sync.MaxQueueLength == 0 {
		cfg.Sync.MaxQueueLength = defaultMaxQueueLength
	}
	if cfg.Sync.ConflictPolicy == "" {
		cfg.Sync.ConflictPolicy = string(models.PolicyManual)
	}

	switch models.ConflictPolicy(cfg.Sync.ConflictPolicy) {
	case models.PolicyLocalWins, models.PolicyRemoteWins, models.PolicyLatestTimestamp, models.PolicyManual:
	default:
		return ErrInvalidSyncConfigs
	}

	return nil
}
