// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-vault-local/models"
)

// KeyValue is the persistence primitive the vault core serializes all of its
// structures through: opaque byte blobs addressed by string key. No
// transactional multi-key writes are assumed; every document the repository
// stores fits in a single key.
type KeyValue interface {
	// Get returns the value stored under key, or [ErrKeyNotFound].
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteAll removes every key in keys in one operation.
	DeleteAll(ctx context.Context, keys []string) error

	// Keys returns all stored keys with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// VaultRepository persists the vault's domain documents through a [KeyValue]
// backend: credential entries, the pending-operation queue, detected
// conflicts, categories, settings and the trusted-domain list.
type VaultRepository interface {
	SaveEntry(ctx context.Context, entry models.CredentialEntry) error
	GetEntry(ctx context.Context, id string) (models.CredentialEntry, error)
	GetAllEntries(ctx context.Context) ([]models.CredentialEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteAllEntries(ctx context.Context) error

	SaveQueue(ctx context.Context, ops []models.PendingOperation) error
	LoadQueue(ctx context.Context) ([]models.PendingOperation, error)

	SaveConflicts(ctx context.Context, conflicts []models.SyncConflict) error
	LoadConflicts(ctx context.Context) ([]models.SyncConflict, error)

	SaveCategories(ctx context.Context, categories []models.Category) error
	LoadCategories(ctx context.Context) ([]models.Category, error)

	SaveSettings(ctx context.Context, settings map[string]any) error
	LoadSettings(ctx context.Context) (map[string]any, error)

	SaveTrustedDomains(ctx context.Context, domains []string) error
	LoadTrustedDomains(ctx context.Context) ([]string, error)
}
