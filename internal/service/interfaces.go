// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
)

// CredentialService defines the contract for managing credential entries in
// the local store. Metadata is handled in plaintext; secret values only ever
// cross this boundary as explicit plaintext parameters or results, and are
// stored exclusively inside authenticated-encryption envelopes.
//
// Reads are lazy: no method decrypts a secret unless the caller supplies the
// master secret and asks for it.
type CredentialService interface {
	// Create encrypts plaintext under a fresh salt and nonce, assigns the
	// entry an ID and timestamps, persists it, and queues the creation for
	// sync. An empty plaintext with an empty secret creates a
	// metadata-only entry with no envelope.
	// Returns the stored entry or an error if encryption or persistence
	// fails.
	Create(ctx context.Context, entry models.CredentialEntry, plaintext, secret string) (models.CredentialEntry, error)

	// Update persists modified metadata and queues the update for sync.
	// When plaintext is nil the stored envelope is carried over untouched.
	// When plaintext is supplied and equals the currently stored secret,
	// the existing envelope is reused so that an unchanged secret does not
	// produce new ciphertext; otherwise the secret is re-encrypted under a
	// fresh salt and nonce. Updating a corrupted entry with new plaintext
	// repairs it.
	Update(ctx context.Context, entry models.CredentialEntry, plaintext *string, secret string) (models.CredentialEntry, error)

	// Get returns the stored entry without decrypting its secret.
	Get(ctx context.Context, id string) (models.CredentialEntry, error)

	// GetView returns the entry together with its secret-field state.
	// With an empty secret the secret is reported pending and the
	// envelope carried verbatim.
	GetView(ctx context.Context, id, secret string) (models.CredentialView, error)

	// Reveal decrypts and returns the entry's secret and records the
	// access time. Returns [ErrCorruptedEntry] for a structurally
	// incomplete envelope and a key-derivation/authentication error for a
	// wrong secret or tampered ciphertext.
	Reveal(ctx context.Context, id, secret string) (string, error)

	// ListAll returns every entry paired with its secret-field state.
	// With an empty secret all secrets are reported pending. A corrupted
	// entry is reported as corrupted in place; it never fails the batch.
	ListAll(ctx context.Context, secret string) ([]models.CredentialView, error)

	// Search returns entries whose title, username, website, notes or tags
	// contain query (case-insensitive). Secrets are not decrypted.
	Search(ctx context.Context, query string) ([]models.CredentialEntry, error)

	// ByCategory returns all entries in the given category.
	ByCategory(ctx context.Context, category string) ([]models.CredentialEntry, error)

	// Delete removes the entry from the local store and queues the
	// deletion for sync.
	Delete(ctx context.Context, id string) error

	// Categories returns the known entry categories.
	Categories(ctx context.Context) ([]models.Category, error)

	// AddCategory registers a category. Adding an existing name is a
	// no-op.
	AddCategory(ctx context.Context, category models.Category) error

	// InvalidateKeys zeroes and drops all cached derived keys. Called on
	// logout and on master-secret change.
	InvalidateKeys()
}

// SyncService defines the contract for reconciling the local store with its
// remote copy. Local mutations are queued while offline and replayed in
// enqueue order once a sync runs.
type SyncService interface {
	// Enqueue records a local mutation for later replay. snapshot is the
	// entry state at mutation time (nil for deletions); baseUpdatedAt is
	// the pre-mutation modification time used for conflict detection.
	// When the queue exceeds its configured cap the oldest operation is
	// evicted first. While online, enqueueing triggers an immediate sync
	// attempt; a run already in flight absorbs it.
	Enqueue(ctx context.Context, kind models.OperationKind, entryID string, snapshot *models.CredentialEntry, baseUpdatedAt *time.Time) error

	// Sync replays the pending queue against the remote store. Returns
	// [ErrSyncUnavailable] while offline and [ErrSyncInProgress] when a
	// run is already active. Failed operations stay queued with an
	// incremented retry count until the retry limit is exhausted, then
	// they are dropped and itemised in the result.
	Sync(ctx context.Context) (models.SyncResult, error)

	// Pending returns the queued operations in replay order.
	Pending(ctx context.Context) ([]models.PendingOperation, error)

	// Conflicts returns all unresolved conflicts.
	Conflicts(ctx context.Context) ([]models.SyncConflict, error)

	// ResolveConflict applies the chosen side of the conflict locally and
	// remotely, then removes the conflict and any queued operation for
	// the same entry. ChooseMerge requires merged to be non-nil.
	ResolveConflict(ctx context.Context, conflictID string, choice models.ResolveChoice, merged *models.CredentialEntry) error

	// ClearConflicts drops all recorded conflicts without applying
	// anything.
	ClearConflicts(ctx context.Context) error

	// SetOnline flips the connectivity flag. Sync refuses to run while
	// offline; Enqueue always works.
	SetOnline(online bool)

	// Online reports the current connectivity flag.
	Online() bool
}

// SyncJob defines the contract for a background worker that periodically
// triggers a sync run.
type SyncJob interface {
	// Start launches the background goroutine. It syncs every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any
	// previously running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it
	// has fully terminated.
	Stop()
}

// BackupService defines the contract for exporting the vault into a portable
// bundle file and restoring from one.
type BackupService interface {
	// CreateBackup serializes the whole store into a bundle at
	// opts.Path. Entry secrets are re-encrypted under the backup key
	// domain when a secret is supplied; corrupted entries are carried
	// verbatim so a backup never silently loses records.
	// Returns [ErrInvalidConfiguration] when encryption is requested
	// without a secret.
	CreateBackup(ctx context.Context, opts models.BackupOptions) (models.BackupReport, error)

	// RestoreFromBackup reads the bundle at path and loads its entries
	// into the store with the chosen merge strategy. Entries whose secret
	// cannot be decrypted with any known derivation strategy are excluded
	// and counted, never partially imported.
	RestoreFromBackup(ctx context.Context, path string, opts models.RestoreOptions) (models.RestoreResult, error)

	// ExtractMetadata reads the unencrypted metadata prefix of the bundle
	// at path. Without a prefix it falls back to decrypting the whole
	// bundle when a secret is supplied. Returns nil, without an error,
	// when the metadata cannot be determined.
	ExtractMetadata(ctx context.Context, path, secret string) (*models.BackupMetadata, error)

	// UploadBackup pushes a bundle file to remote blob storage and
	// returns the storage-assigned id.
	UploadBackup(ctx context.Context, localPath, remoteName string) (string, error)

	// DownloadBackup fetches a remotely stored bundle to localPath.
	DownloadBackup(ctx context.Context, id, localPath string) error

	// ListRemoteBackups returns descriptors of remotely stored bundles.
	ListRemoteBackups(ctx context.Context) ([]RemoteBackup, error)
}

// RemoteBackup describes one bundle held in remote blob storage.
type RemoteBackup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
