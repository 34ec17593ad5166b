// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{DB: DB{DSN: "/tmp/vault.db"}},
		Remote:  Remote{HTTPAddress: "https://vault.example.com"},
	}
}

func TestValidate_FillsSyncDefaults(t *testing.T) {
	// Arrange
	cfg := validConfig()

	// Act
	err := cfg.validate()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, defaultSyncInterval, cfg.Sync.Interval)
	assert.Equal(t, defaultRetryLimit, cfg.Sync.RetryLimit)
	assert.Equal(t, defaultMaxQueueLength, cfg.Sync.MaxQueueLength)
	assert.Equal(t, string(models.PolicyManual), cfg.Sync.ConflictPolicy)
	assert.Equal(t, defaultRequestTimeout, cfg.Remote.RequestTimeout)
}

func TestValidate_KeepsExplicitValues(t *testing.T) {
	// Arrange
	cfg := validConfig()
	cfg.Sync.Interval = time.Minute
	cfg.Sync.RetryLimit = 7
	cfg.Sync.ConflictPolicy = string(models.PolicyLocalWins)

	// Act
	err := cfg.validate()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 7, cfg.Sync.RetryLimit)
	assert.Equal(t, string(models.PolicyLocalWins), cfg.Sync.ConflictPolicy)
}

func TestValidate_MissingStorageDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DB.DSN = ""

	require.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestValidate_MissingRemoteAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.HTTPAddress = ""

	require.ErrorIs(t, cfg.validate(), ErrInvalidRemoteConfigs)
}

func TestValidate_UnknownConflictPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.ConflictPolicy = "newest_wins"

	require.ErrorIs(t, cfg.validate(), ErrInvalidSyncConfigs)
}

func TestSyncConfig_Mapping(t *testing.T) {
	cfg := validConfig()
	cfg.Sync = Sync{
		AutoSync:       true,
		Interval:       10 * time.Minute,
		RetryLimit:     5,
		ConflictPolicy: string(models.PolicyLatestTimestamp),
		MaxQueueLength: 200,
	}

	syncCfg := cfg.SyncConfig()

	assert.True(t, syncCfg.AutoSync)
	assert.Equal(t, 10*time.Minute, syncCfg.Interval)
	assert.Equal(t, 5, syncCfg.RetryLimit)
	assert.Equal(t, models.PolicyLatestTimestamp, syncCfg.Policy)
	assert.Equal(t, 200, syncCfg.MaxQueueLength)
}
