// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for the vault's
// remote collaborators.
//
// [RemoteStore] is the record store the sync engine replays queued mutations
// against; [BlobTransport] moves backup bundles as opaque blobs. The package
// ships HTTP/REST implementations of both built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrNotFound] for 404).
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
)

// RemoteStore is the remote copy of the credential store. The sync engine
// fetches the current remote record before replaying each queued mutation
// and pushes the resolved state back.
type RemoteStore interface {
	// Fetch returns the remote copy of the entry, or [ErrNotFound]
	// (wrapped) when the remote has no record for the id. Absence is an
	// expected state, not a transport failure.
	Fetch(ctx context.Context, entryID string) (*models.CredentialEntry, error)

	// Put creates or replaces the remote copy of the entry.
	Put(ctx context.Context, entry models.CredentialEntry) error

	// Delete removes the remote copy. Deleting an absent record is not an
	// error.
	Delete(ctx context.Context, entryID string) error
}

// BlobInfo describes one stored blob.
type BlobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	CreatedTime time.Time `json:"created_time"`
}

// BlobTransport moves backup bundles to and from remote object storage. The
// bundle content is opaque to this interface.
type BlobTransport interface {
	// Upload stores the file at localPath under remoteName and returns
	// the storage-assigned blob id.
	Upload(ctx context.Context, localPath, remoteName string) (string, error)

	// Download fetches the blob and writes it to localPath in one
	// complete write.
	Download(ctx context.Context, id, localPath string) error

	// List returns descriptors of all stored blobs.
	List(ctx context.Context) ([]BlobInfo, error)

	// Delete removes the blob.
	Delete(ctx context.Context, id string) error
}
