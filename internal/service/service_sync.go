// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-vault-local/internal/adapter"
	"github.com/MKhiriev/go-vault-local/internal/store"
	"github.com/MKhiriev/go-vault-local/models"
)

type syncService struct {
	repository store.VaultRepository
	remote     adapter.RemoteStore
	cfg        models.SyncConfig

	mu       sync.Mutex
	online   bool
	inFlight bool

	// queueMu serializes read-modify-write cycles on the persisted queue.
	// Enqueue runs on the caller's goroutine while the auto-sync job runs
	// Sync on its own; without this lock the run's final save would
	// clobber an operation enqueued while the run was in flight.
	queueMu sync.Mutex
}

func NewSyncService(repository store.VaultRepository, remote adapter.RemoteStore, cfg models.SyncConfig) SyncService {
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.MaxQueueLength <= 0 {
		cfg.MaxQueueLength = 100
	}
	if cfg.Policy == "" {
		cfg.Policy = models.PolicyManual
	}
	return &syncService{repository: repository, remote: remote, cfg: cfg}
}

func (s *syncService) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

func (s *syncService) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *syncService) Enqueue(ctx context.Context, kind models.OperationKind, entryID string, snapshot *models.CredentialEntry, baseUpdatedAt *time.Time) error {
	err := s.appendOperation(ctx, models.PendingOperation{
		ID:            uuid.NewString(),
		Kind:          kind,
		EntryID:       entryID,
		Snapshot:      snapshot,
		QueuedAt:      time.Now().UTC(),
		BaseUpdatedAt: baseUpdatedAt,
	})
	if err != nil {
		return err
	}

	if s.Online() {
		// offline and already-running are expected here
		_, _ = s.Sync(ctx)
	}
	return nil
}

func (s *syncService) appendOperation(ctx context.Context, op models.PendingOperation) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	queue, err := s.repository.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load pending queue: %w", err)
	}

	queue = append(queue, op)

	// bounded queue: the oldest operation goes first
	for len(queue) > s.cfg.MaxQueueLength {
		queue = queue[1:]
	}

	if err = s.repository.SaveQueue(ctx, queue); err != nil {
		return fmt.Errorf("save pending queue: %w", err)
	}
	return nil
}

func (s *syncService) Pending(ctx context.Context) ([]models.PendingOperation, error) {
	queue, err := s.repository.LoadQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}
	return queue, nil
}

func (s *syncService) Sync(ctx context.Context) (models.SyncResult, error) {
	s.mu.Lock()
	if !s.online {
		s.mu.Unlock()
		return models.SyncResult{}, ErrSyncUnavailable
	}
	if s.inFlight {
		s.mu.Unlock()
		return models.SyncResult{}, ErrSyncInProgress
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	s.queueMu.Lock()
	queue, err := s.repository.LoadQueue(ctx)
	s.queueMu.Unlock()
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("load pending queue: %w", err)
	}
	snapshotIDs := make(map[string]struct{}, len(queue))
	for _, op := range queue {
		snapshotIDs[op.ID] = struct{}{}
	}

	conflicts, err := s.repository.LoadConflicts(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("load conflicts: %w", err)
	}

	var result models.SyncResult
	remaining := make([]models.PendingOperation, 0, len(queue))

	for _, op := range queue {
		outcome, opErr := s.replay(ctx, op, &conflicts, &result)
		if opErr != nil {
			op.RetryCount++
			if op.RetryCount > s.cfg.RetryLimit {
				result.Errors = append(result.Errors, models.SyncError{
					OperationID: op.ID,
					EntryID:     op.EntryID,
					Message:     fmt.Errorf("%w: %v", ErrRetryExhausted, opErr).Error(),
				})
				continue
			}
			remaining = append(remaining, op)
			continue
		}
		if outcome == opDeferred {
			remaining = append(remaining, op)
			continue
		}
		result.Synced++
	}

	if err = s.saveQueueAfterRun(ctx, remaining, snapshotIDs); err != nil {
		return result, err
	}
	if err = s.repository.SaveConflicts(ctx, conflicts); err != nil {
		return result, fmt.Errorf("save conflicts after sync: %w", err)
	}

	return result, nil
}

// saveQueueAfterRun writes the post-replay queue back, carrying over every
// operation enqueued after the run took its snapshot.
func (s *syncService) saveQueueAfterRun(ctx context.Context, remaining []models.PendingOperation, snapshotIDs map[string]struct{}) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	persisted, err := s.repository.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load pending queue after sync: %w", err)
	}
	for _, op := range persisted {
		if _, seen := snapshotIDs[op.ID]; !seen {
			remaining = append(remaining, op)
		}
	}

	if err = s.repository.SaveQueue(ctx, remaining); err != nil {
		return fmt.Errorf("save pending queue after sync: %w", err)
	}
	return nil
}

type replayOutcome int

const (
	opApplied replayOutcome = iota
	opDeferred
)

// replay pushes one queued operation to the remote store, detecting and
// resolving conflicts along the way. A returned error means a transport
// failure that is subject to the retry budget; opDeferred means the
// operation stays queued without consuming a retry (manual conflicts).
func (s *syncService) replay(ctx context.Context, op models.PendingOperation, conflicts *[]models.SyncConflict, result *models.SyncResult) (replayOutcome, error) {
	remote, err := s.remote.Fetch(ctx, op.EntryID)
	switch {
	case errors.Is(err, adapter.ErrNotFound):
		remote = nil
	case err != nil:
		return opApplied, fmt.Errorf("fetch remote entry %s: %w", op.EntryID, err)
	}

	if s.isConflict(op, remote) {
		return s.resolveByPolicy(ctx, op, remote, conflicts, result)
	}

	if err = s.push(ctx, op); err != nil {
		return opApplied, err
	}
	return opApplied, nil
}

// isConflict reports whether the remote copy diverged after the operation
// was queued.
func (s *syncService) isConflict(op models.PendingOperation, remote *models.CredentialEntry) bool {
	if remote == nil || remote.UpdatedAt == nil {
		return false
	}
	if op.BaseUpdatedAt == nil {
		// creation replayed onto an already existing remote record
		return op.Kind == models.OpCreate
	}
	return remote.UpdatedAt.After(*op.BaseUpdatedAt)
}

func (s *syncService) resolveByPolicy(ctx context.Context, op models.PendingOperation, remote *models.CredentialEntry, conflicts *[]models.SyncConflict, result *models.SyncResult) (replayOutcome, error) {
	switch s.cfg.Policy {
	case models.PolicyLocalWins:
		return opApplied, s.push(ctx, op)

	case models.PolicyRemoteWins:
		return opApplied, s.adoptRemote(ctx, op.EntryID, remote)

	case models.PolicyLatestTimestamp:
		if s.remoteIsNewer(op, remote) {
			return opApplied, s.adoptRemote(ctx, op.EntryID, remote)
		}
		return opApplied, s.push(ctx, op)

	default: // manual
		for _, existing := range *conflicts {
			if existing.EntryID == op.EntryID {
				return opDeferred, nil
			}
		}
		conflict := models.SyncConflict{
			ID:         uuid.NewString(),
			EntryID:    op.EntryID,
			Local:      op.Snapshot,
			Remote:     remote,
			Type:       conflictType(op.Kind),
			DetectedAt: time.Now().UTC(),
		}
		*conflicts = append(*conflicts, conflict)
		result.NewConflicts = append(result.NewConflicts, conflict)
		return opDeferred, nil
	}
}

// remoteIsNewer implements the latest_timestamp tie-break: the remote copy
// wins only with a strictly greater modification time, so an exact tie does
// not depend on replay order.
func (s *syncService) remoteIsNewer(op models.PendingOperation, remote *models.CredentialEntry) bool {
	if remote == nil || remote.UpdatedAt == nil {
		return false
	}
	local := op.BaseUpdatedAt
	if op.Snapshot != nil && op.Snapshot.UpdatedAt != nil {
		local = op.Snapshot.UpdatedAt
	}
	if local == nil {
		return true
	}
	return remote.UpdatedAt.After(*local)
}

// push sends the operation's effect to the remote store.
func (s *syncService) push(ctx context.Context, op models.PendingOperation) error {
	switch op.Kind {
	case models.OpDelete:
		if err := s.remote.Delete(ctx, op.EntryID); err != nil {
			return fmt.Errorf("delete remote entry %s: %w", op.EntryID, err)
		}
	default:
		if op.Snapshot == nil {
			return fmt.Errorf("operation %s has no snapshot to push", op.ID)
		}
		if err := s.remote.Put(ctx, *op.Snapshot); err != nil {
			return fmt.Errorf("put remote entry %s: %w", op.EntryID, err)
		}
	}
	return nil
}

// adoptRemote commits the remote copy locally, dropping the local mutation.
// A nil remote means the record no longer exists anywhere.
func (s *syncService) adoptRemote(ctx context.Context, entryID string, remote *models.CredentialEntry) error {
	if remote == nil {
		if err := s.repository.DeleteEntry(ctx, entryID); err != nil && !errors.Is(err, store.ErrEntryNotFound) {
			return fmt.Errorf("delete local entry %s: %w", entryID, err)
		}
		return nil
	}
	if err := s.repository.SaveEntry(ctx, *remote); err != nil {
		return fmt.Errorf("adopt remote entry %s: %w", entryID, err)
	}
	return nil
}

func conflictType(kind models.OperationKind) models.ConflictType {
	if kind == models.OpDelete {
		return models.ConflictDelete
	}
	return models.ConflictUpdate
}

func (s *syncService) Conflicts(ctx context.Context) ([]models.SyncConflict, error) {
	conflicts, err := s.repository.LoadConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conflicts: %w", err)
	}
	return conflicts, nil
}

func (s *syncService) ResolveConflict(ctx context.Context, conflictID string, choice models.ResolveChoice, merged *models.CredentialEntry) error {
	conflicts, err := s.repository.LoadConflicts(ctx)
	if err != nil {
		return fmt.Errorf("load conflicts: %w", err)
	}

	idx := -1
	for i, conflict := range conflicts {
		if conflict.ID == conflictID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrConflictNotFound, conflictID)
	}
	conflict := conflicts[idx]

	switch choice {
	case models.ChooseLocal:
		err = s.applyLocalChoice(ctx, conflict)
	case models.ChooseRemote:
		err = s.adoptRemote(ctx, conflict.EntryID, conflict.Remote)
	case models.ChooseMerge:
		if merged == nil {
			return fmt.Errorf("%w: merge resolution requires a merged entry", ErrInvalidConfiguration)
		}
		err = s.applyMergedChoice(ctx, conflict.EntryID, *merged)
	default:
		return fmt.Errorf("%w: unknown resolve choice %q", ErrInvalidConfiguration, choice)
	}
	if err != nil {
		return err
	}

	conflicts = append(conflicts[:idx], conflicts[idx+1:]...)
	if err = s.repository.SaveConflicts(ctx, conflicts); err != nil {
		return fmt.Errorf("save conflicts after resolve: %w", err)
	}

	return s.dropQueuedFor(ctx, conflict.EntryID)
}

func (s *syncService) applyLocalChoice(ctx context.Context, conflict models.SyncConflict) error {
	if conflict.Type == models.ConflictDelete || conflict.Local == nil {
		if err := s.remote.Delete(ctx, conflict.EntryID); err != nil {
			return fmt.Errorf("delete remote entry %s: %w", conflict.EntryID, err)
		}
		return nil
	}
	if err := s.remote.Put(ctx, *conflict.Local); err != nil {
		return fmt.Errorf("put remote entry %s: %w", conflict.EntryID, err)
	}
	return nil
}

func (s *syncService) applyMergedChoice(ctx context.Context, entryID string, merged models.CredentialEntry) error {
	now := time.Now().UTC()
	merged.ID = entryID
	merged.UpdatedAt = &now

	if err := s.repository.SaveEntry(ctx, merged); err != nil {
		return fmt.Errorf("save merged entry %s: %w", entryID, err)
	}
	if err := s.remote.Put(ctx, merged); err != nil {
		return fmt.Errorf("put merged entry %s: %w", entryID, err)
	}
	return nil
}

// dropQueuedFor removes every queued operation touching the entry; the
// conflict resolution already decided its fate.
func (s *syncService) dropQueuedFor(ctx context.Context, entryID string) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	queue, err := s.repository.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load pending queue: %w", err)
	}

	remaining := make([]models.PendingOperation, 0, len(queue))
	for _, op := range queue {
		if op.EntryID != entryID {
			remaining = append(remaining, op)
		}
	}

	if err = s.repository.SaveQueue(ctx, remaining); err != nil {
		return fmt.Errorf("save pending queue: %w", err)
	}
	return nil
}

func (s *syncService) ClearConflicts(ctx context.Context) error {
	if err := s.repository.SaveConflicts(ctx, nil); err != nil {
		return fmt.Errorf("clear conflicts: %w", err)
	}
	return nil
}
