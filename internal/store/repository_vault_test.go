// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-vault-local/internal/logger"
	"github.com/MKhiriev/go-vault-local/internal/store"
	"github.com/MKhiriev/go-vault-local/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) store.VaultRepository {
	t.Helper()
	return store.NewVaultRepository(store.NewMemoryKeyValue(), logger.Nop())
}

// ── Entries ──────────────────────────────────────────────────────────────────

func TestVaultRepository_SaveGetEntry_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	entry := models.CredentialEntry{
		ID:        "e1",
		Title:     "GitHub",
		Username:  "octocat",
		Website:   "https://github.com",
		Category:  "work",
		Tags:      []string{"dev", "vcs"},
		Favorite:  true,
		CreatedAt: &now,
		UpdatedAt: &now,
		Secret: models.Envelope{
			Ciphertext: []byte{1, 2, 3},
			Salt:       []byte("0123456789abcdef"),
			IV:         []byte("0123456789ab"),
			AuthTag:    []byte("0123456789abcdef"),
		},
		KDFIterations: 3,
	}

	require.NoError(t, repo.SaveEntry(ctx, entry))

	got, err := repo.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestVaultRepository_GetEntry_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetEntry(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrEntryNotFound)
}

func TestVaultRepository_GetAllEntries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveEntry(ctx, models.CredentialEntry{ID: "a", Title: "A"}))
	require.NoError(t, repo.SaveEntry(ctx, models.CredentialEntry{ID: "b", Title: "B"}))

	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestVaultRepository_DeleteEntry(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveEntry(ctx, models.CredentialEntry{ID: "a"}))
	require.NoError(t, repo.DeleteEntry(ctx, "a"))

	_, err := repo.GetEntry(ctx, "a")
	require.ErrorIs(t, err, store.ErrEntryNotFound)
}

func TestVaultRepository_DeleteAllEntries_KeepsOtherDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveEntry(ctx, models.CredentialEntry{ID: "a"}))
	require.NoError(t, repo.SaveEntry(ctx, models.CredentialEntry{ID: "b"}))
	require.NoError(t, repo.SaveCategories(ctx, []models.Category{{Name: "work"}}))

	require.NoError(t, repo.DeleteAllEntries(ctx))

	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	categories, err := repo.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

// ── Documents ────────────────────────────────────────────────────────────────

func TestVaultRepository_Queue_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	queued := time.Now().UTC().Truncate(time.Second)
	ops := []models.PendingOperation{
		{ID: "op1", Kind: models.OpCreate, EntryID: "e1", QueuedAt: queued},
		{ID: "op2", Kind: models.OpDelete, EntryID: "e2", QueuedAt: queued, RetryCount: 2},
	}

	require.NoError(t, repo.SaveQueue(ctx, ops))

	got, err := repo.LoadQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, ops, got)
}

func TestVaultRepository_LoadQueue_EmptyStoreIsNotAnError(t *testing.T) {
	repo := newTestRepository(t)

	ops, err := repo.LoadQueue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestVaultRepository_Conflicts_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	detected := time.Now().UTC().Truncate(time.Second)
	conflicts := []models.SyncConflict{
		{ID: "c1", EntryID: "e1", Type: models.ConflictUpdate, DetectedAt: detected},
	}

	require.NoError(t, repo.SaveConflicts(ctx, conflicts))

	got, err := repo.LoadConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, conflicts, got)
}

func TestVaultRepository_SettingsAndDomains_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	settings := map[string]any{"theme": "dark", "lock_minutes": float64(5)}
	require.NoError(t, repo.SaveSettings(ctx, settings))
	gotSettings, err := repo.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, gotSettings)

	domains := []string{"example.com", "bank.example"}
	require.NoError(t, repo.SaveTrustedDomains(ctx, domains))
	gotDomains, err := repo.LoadTrustedDomains(ctx)
	require.NoError(t, err)
	assert.Equal(t, domains, gotDomains)
}

// ── Memory KeyValue ──────────────────────────────────────────────────────────

func TestMemoryKeyValue_Basics(t *testing.T) {
	kv := store.NewMemoryKeyValue()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "entry:a", []byte("1")))
	require.NoError(t, kv.Set(ctx, "entry:b", []byte("2")))
	require.NoError(t, kv.Set(ctx, "sync:queue", []byte("3")))

	keys, err := kv.Keys(ctx, "entry:")
	require.NoError(t, err)
	assert.Equal(t, []string{"entry:a", "entry:b"}, keys)

	require.NoError(t, kv.DeleteAll(ctx, []string{"entry:a", "entry:b"}))
	keys, err = kv.Keys(ctx, "entry:")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// удаление отсутствующего ключа не ошибка
	require.NoError(t, kv.Delete(ctx, "missing"))
}

func TestMemoryKeyValue_CopiesValues(t *testing.T) {
	kv := store.NewMemoryKeyValue()
	ctx := context.Background()

	original := []byte("payload")
	require.NoError(t, kv.Set(ctx, "k", original))
	original[0] = 'X'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	got[1] = 'Y'
	again, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}
