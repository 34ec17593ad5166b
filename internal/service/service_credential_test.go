// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-vault-local/internal/crypto"
	"github.com/MKhiriev/go-vault-local/internal/logger"
	"github.com/MKhiriev/go-vault-local/internal/store"
	"github.com/MKhiriev/go-vault-local/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEnqueuer — простой мок SyncService для тестов CredentialService, не
// требует mockgen.
type stubEnqueuer struct {
	SyncService

	kinds    []models.OperationKind
	entryIDs []string
	err      error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, kind models.OperationKind, entryID string, _ *models.CredentialEntry, _ *time.Time) error {
	s.kinds = append(s.kinds, kind)
	s.entryIDs = append(s.entryIDs, entryID)
	return s.err
}

func newTestCredentialSvc(t *testing.T) (CredentialService, store.VaultRepository, *stubEnqueuer) {
	t.Helper()

	repo := store.NewVaultRepository(store.NewMemoryKeyValue(), logger.Nop())
	queue := &stubEnqueuer{}
	svc := NewCredentialService(repo, crypto.NewKeyChainService(), store.NewKeyCache(store.DefaultKeyTTL), queue)
	return svc, repo, queue
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCredentialService_Create_EncryptsAndQueues(t *testing.T) {
	svc, repo, queue := newTestCredentialSvc(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub", Username: "octocat"}, "s3cr3t", "master")
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.True(t, entry.Secret.Complete())
	assert.Equal(t, crypto.DefaultIterations, entry.KDFIterations)
	require.NotNil(t, entry.CreatedAt)
	require.NotNil(t, entry.UpdatedAt)

	stored, err := repo.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Secret, stored.Secret)
	// в хранилище нет открытого текста
	assert.NotContains(t, string(stored.Secret.Ciphertext), "s3cr3t")

	assert.Equal(t, []models.OperationKind{models.OpCreate}, queue.kinds)
	assert.Equal(t, []string{entry.ID}, queue.entryIDs)
}

func TestCredentialService_Create_PlaintextWithoutSecret(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)

	_, err := svc.Create(context.Background(), models.CredentialEntry{Title: "X"}, "s3cr3t", "")
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCredentialService_Create_MetadataOnlyEntry(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)

	entry, err := svc.Create(context.Background(), models.CredentialEntry{Title: "Wi-Fi note"}, "", "")
	require.NoError(t, err)
	assert.True(t, entry.Secret.Empty())
}

// ── Update: переиспользование конверта ───────────────────────────────────────

func TestCredentialService_Update_UnchangedSecretReusesEnvelope(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	same := "s3cr3t"
	created.Title = "GitHub (work)"
	updated, err := svc.Update(ctx, created, &same, "master")
	require.NoError(t, err)

	// тот же открытый текст: конверт байт-в-байт прежний
	assert.Equal(t, created.Secret, updated.Secret)
	assert.Equal(t, created.KDFIterations, updated.KDFIterations)
	assert.Equal(t, "GitHub (work)", updated.Title)
}

func TestCredentialService_Update_ChangedSecretMintsFreshEnvelope(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	changed := "new-s3cr3t"
	updated, err := svc.Update(ctx, created, &changed, "master")
	require.NoError(t, err)

	assert.NotEqual(t, created.Secret.Salt, updated.Secret.Salt)
	assert.NotEqual(t, created.Secret.IV, updated.Secret.IV)
	assert.NotEqual(t, created.Secret.Ciphertext, updated.Secret.Ciphertext)

	got, err := svc.Reveal(ctx, created.ID, "master")
	require.NoError(t, err)
	assert.Equal(t, "new-s3cr3t", got)
}

func TestCredentialService_Update_NilPlaintextKeepsEnvelope(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	created.Favorite = true
	updated, err := svc.Update(ctx, created, nil, "")
	require.NoError(t, err)

	assert.Equal(t, created.Secret, updated.Secret)
	assert.True(t, updated.Favorite)
}

func TestCredentialService_Update_RepairsCorruptedEntry(t *testing.T) {
	svc, repo, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	// имитируем порчу записи: тег утерян
	broken, err := repo.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	broken.Secret.AuthTag = nil
	require.NoError(t, repo.SaveEntry(ctx, broken))

	repaired := "recovered"
	updated, err := svc.Update(ctx, broken, &repaired, "master")
	require.NoError(t, err)
	assert.True(t, updated.Secret.Complete())

	got, err := svc.Reveal(ctx, created.ID, "master")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
}

func TestCredentialService_Update_UnknownEntry(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)

	_, err := svc.Update(context.Background(), models.CredentialEntry{ID: "missing"}, nil, "")
	require.ErrorIs(t, err, store.ErrEntryNotFound)
}

// ── Reveal ───────────────────────────────────────────────────────────────────

func TestCredentialService_Reveal_RoundTripAndLastUsed(t *testing.T) {
	svc, repo, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	got, err := svc.Reveal(ctx, created.ID, "master")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)

	stored, err := repo.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt)
}

func TestCredentialService_Reveal_WrongSecret(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	_, err = svc.Reveal(ctx, created.ID, "wrong-master")
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
}

func TestCredentialService_Reveal_CorruptedEnvelope(t *testing.T) {
	svc, repo, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub"}, "s3cr3t", "master")
	require.NoError(t, err)

	broken, err := repo.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	broken.Secret.AuthTag = nil
	require.NoError(t, repo.SaveEntry(ctx, broken))

	_, err = svc.Reveal(ctx, created.ID, "master")
	require.ErrorIs(t, err, ErrCorruptedEntry)
}

func TestCredentialService_Reveal_NoSecretStored(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "Note"}, "", "")
	require.NoError(t, err)

	got, err := svc.Reveal(ctx, created.ID, "master")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ── ListAll: изоляция ошибок в батче ─────────────────────────────────────────

func TestCredentialService_ListAll_CorruptedEntryDoesNotFailBatch(t *testing.T) {
	svc, repo, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	okA, err := svc.Create(ctx, models.CredentialEntry{Title: "A"}, "secret-a", "master")
	require.NoError(t, err)
	okB, err := svc.Create(ctx, models.CredentialEntry{Title: "B"}, "secret-b", "master")
	require.NoError(t, err)
	bad, err := svc.Create(ctx, models.CredentialEntry{Title: "C"}, "secret-c", "master")
	require.NoError(t, err)

	broken, err := repo.GetEntry(ctx, bad.ID)
	require.NoError(t, err)
	broken.Secret.AuthTag = nil
	require.NoError(t, repo.SaveEntry(ctx, broken))

	views, err := svc.ListAll(ctx, "master")
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := make(map[string]models.SecretField, len(views))
	for _, view := range views {
		byID[view.Entry.ID] = view.Secret
	}

	assert.Equal(t, models.SecretDecrypted, byID[okA.ID].State)
	assert.Equal(t, "secret-a", byID[okA.ID].Plaintext)
	assert.Equal(t, models.SecretDecrypted, byID[okB.ID].State)
	assert.Equal(t, "secret-b", byID[okB.ID].Plaintext)
	assert.Equal(t, models.SecretCorrupted, byID[bad.ID].State)
	assert.NotEmpty(t, byID[bad.ID].Reason)
}

func TestCredentialService_ListAll_NoSecretMeansPending(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CredentialEntry{Title: "A"}, "secret-a", "master")
	require.NoError(t, err)

	views, err := svc.ListAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.SecretPending, views[0].Secret.State)
	assert.Empty(t, views[0].Secret.Plaintext)
	// конверт остаётся на месте для операций над метаданными
	assert.True(t, views[0].Entry.Secret.Complete())
}

func TestCredentialService_GetView(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "A"}, "secret-a", "master")
	require.NoError(t, err)

	pending, err := svc.GetView(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.SecretPending, pending.Secret.State)

	decrypted, err := svc.GetView(ctx, created.ID, "master")
	require.NoError(t, err)
	assert.Equal(t, models.SecretDecrypted, decrypted.Secret.State)
	assert.Equal(t, "secret-a", decrypted.Secret.Plaintext)
}

// ── Метаданные: поиск, категории, удаление ───────────────────────────────────

func TestCredentialService_Search(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CredentialEntry{Title: "GitHub", Username: "octocat"}, "", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.CredentialEntry{Title: "Bank", Website: "https://bank.example", Tags: []string{"finance"}}, "", "")
	require.NoError(t, err)

	byTitle, err := svc.Search(ctx, "github")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "GitHub", byTitle[0].Title)

	byTag, err := svc.Search(ctx, "FINANCE")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Bank", byTag[0].Title)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCredentialService_ByCategory(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CredentialEntry{Title: "A", Category: "Work"}, "", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.CredentialEntry{Title: "B", Category: "personal"}, "", "")
	require.NoError(t, err)

	work, err := svc.ByCategory(ctx, "work")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "A", work[0].Title)
}

func TestCredentialService_Delete_RemovesAndQueues(t *testing.T) {
	svc, repo, queue := newTestCredentialSvc(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CredentialEntry{Title: "A"}, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = repo.GetEntry(ctx, created.ID)
	require.ErrorIs(t, err, store.ErrEntryNotFound)
	assert.Equal(t, []models.OperationKind{models.OpCreate, models.OpDelete}, queue.kinds)
}

func TestCredentialService_AddCategory_Deduplicates(t *testing.T) {
	svc, _, _ := newTestCredentialSvc(t)
	ctx := context.Background()

	require.NoError(t, svc.AddCategory(ctx, models.Category{Name: "Work", Icon: "briefcase"}))
	require.NoError(t, svc.AddCategory(ctx, models.Category{Name: "work"}))

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "briefcase", categories[0].Icon)
}
