package models

import "time"

// OperationKind classifies a queued local mutation.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

// PendingOperation is a local mutation recorded while the device was offline
// (or while sync was otherwise deferred), waiting to be replayed against the
// remote copy. Operations are replayed strictly in enqueue order.
type PendingOperation struct {
	// ID is the unique identifier of the queued operation.
	ID string `json:"id"`

	// Kind is the mutation type.
	Kind OperationKind `json:"kind"`

	// EntryID identifies the credential entry the mutation applies to.
	EntryID string `json:"entry_id"`

	// Snapshot is the entry state captured at enqueue time. Nil for
	// deletions.
	Snapshot *CredentialEntry `json:"snapshot,omitempty"`

	// QueuedAt is when the operation was recorded.
	QueuedAt time.Time `json:"queued_at"`

	// BaseUpdatedAt is the entry's UpdatedAt the mutation was queued
	// against. A remote copy strictly newer than this is a conflict.
	BaseUpdatedAt *time.Time `json:"base_updated_at,omitempty"`

	// RetryCount is incremented on every failed replay attempt. Once it
	// exceeds the configured retry limit the operation is dropped and the
	// failure surfaced to the caller.
	RetryCount int `json:"retry_count"`
}

// ConflictType classifies how a sync conflict was detected.
type ConflictType string

const (
	ConflictUpdate ConflictType = "update"
	ConflictDelete ConflictType = "delete"
)

// SyncConflict records a divergence detected during replay: the remote copy
// changed after the local mutation was queued. Conflicts exist until
// explicitly resolved or bulk-cleared.
type SyncConflict struct {
	ID         string           `json:"id"`
	EntryID    string           `json:"entry_id"`
	Local      *CredentialEntry `json:"local,omitempty"`
	Remote     *CredentialEntry `json:"remote,omitempty"`
	Type       ConflictType     `json:"type"`
	DetectedAt time.Time        `json:"detected_at"`
}

// ConflictPolicy selects how conflicts detected during replay are handled.
type ConflictPolicy string

const (
	// PolicyLocalWins applies the queued local mutation regardless of the
	// remote change.
	PolicyLocalWins ConflictPolicy = "local_wins"

	// PolicyRemoteWins commits the remote copy locally and drops the
	// queued mutation.
	PolicyRemoteWins ConflictPolicy = "remote_wins"

	// PolicyLatestTimestamp lets the copy with the strictly greater
	// UpdatedAt win; an exact tie resolves to local so the outcome does
	// not depend on arrival order.
	PolicyLatestTimestamp ConflictPolicy = "latest_timestamp"

	// PolicyManual records a SyncConflict and leaves the operation queued
	// until the user resolves it.
	PolicyManual ConflictPolicy = "manual"
)

// ResolveChoice selects the winning side when resolving a conflict.
type ResolveChoice string

const (
	ChooseLocal  ResolveChoice = "local"
	ChooseRemote ResolveChoice = "remote"
	ChooseMerge  ResolveChoice = "merge"
)

// SyncConfig holds the tunables of the sync engine.
type SyncConfig struct {
	// AutoSync enables the periodic background sync job.
	AutoSync bool `json:"auto_sync"`

	// Interval is the period of the background sync job.
	Interval time.Duration `json:"interval"`

	// RetryLimit is the number of failed replay attempts after which an
	// operation is dropped.
	RetryLimit int `json:"retry_limit"`

	// Policy is the conflict-resolution policy applied during replay.
	Policy ConflictPolicy `json:"policy"`

	// MaxQueueLength bounds the pending-operation queue; the oldest
	// operation is evicted first when the cap is exceeded.
	MaxQueueLength int `json:"max_queue_length"`
}

// SyncError describes one operation that failed terminally during a sync run.
type SyncError struct {
	OperationID string `json:"operation_id"`
	EntryID     string `json:"entry_id"`
	Message     string `json:"message"`
}

// SyncResult summarises one sync run. Batch outcomes are reported as counts
// and itemised lists, never as an opaque boolean.
type SyncResult struct {
	// Synced is the number of operations replayed successfully.
	Synced int `json:"synced"`

	// NewConflicts lists conflicts detected during this run (manual
	// policy only; automatic policies resolve without recording).
	NewConflicts []SyncConflict `json:"new_conflicts,omitempty"`

	// Errors lists operations dropped after retry exhaustion.
	Errors []SyncError `json:"errors,omitempty"`
}
