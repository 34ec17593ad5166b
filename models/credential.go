// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// CredentialEntry represents a single stored credential.
// Searchable metadata is kept in plaintext; the secret value (typically the
// password) is carried exclusively inside the authenticated-encryption
// [Envelope] and is opaque to the storage layer.
type CredentialEntry struct {
	// ID is the opaque unique identifier of the entry.
	ID string `json:"id"`

	// Title is the human-readable display name of the entry.
	Title string `json:"title"`

	// Username is the login identifier associated with the credential.
	Username string `json:"username"`

	// Website is the resource the credential applies to.
	Website string `json:"website,omitempty"`

	// Notes contains optional free-form user notes. Notes are metadata and
	// are not encrypted.
	Notes string `json:"notes,omitempty"`

	// Category is the logical container used to group entries.
	Category string `json:"category,omitempty"`

	// Tags are optional user-defined labels.
	Tags []string `json:"tags,omitempty"`

	// Favorite marks the entry as pinned in listings.
	Favorite bool `json:"favorite,omitempty"`

	// CreatedAt is the timestamp when the entry was created.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// UpdatedAt is the timestamp of the last modification. Sync conflict
	// detection compares this value against the remote copy.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// LastUsedAt is the timestamp of the last secret access.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// Audit summarises the latest password-health evaluation of the entry.
	Audit *AuditSummary `json:"audit,omitempty"`

	// Breach summarises known breach exposure of the credential.
	Breach *BreachSummary `json:"breach,omitempty"`

	// Secret is the authenticated-encryption envelope holding the secret
	// value. May be empty for entries without a stored secret.
	Secret Envelope `json:"secret,omitempty"`

	// KDFIterations is the Argon2id time cost the envelope key was derived
	// with. It is persisted per entry because records written by older
	// application versions may use a lower cost factor, and a key derived
	// with the wrong cost cannot decrypt.
	KDFIterations uint32 `json:"kdf_iterations,omitempty"`
}

// AuditSummary describes the most recent password audit of an entry.
type AuditSummary struct {
	Score       int        `json:"score"`
	Weak        bool       `json:"weak,omitempty"`
	Reused      bool       `json:"reused,omitempty"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`
}

// BreachSummary describes known breach exposure of an entry.
type BreachSummary struct {
	Breached  bool       `json:"breached"`
	Count     int        `json:"count,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// Category is a named group of credential entries.
type Category struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// SecretState tags the decryption outcome of an entry's secret field in a
// read result. A batch read returns one tagged value per entry instead of a
// boolean beside a possibly stale string.
type SecretState int

const (
	// SecretPending means the secret was intentionally not decrypted (no
	// secret supplied); the envelope is carried verbatim.
	SecretPending SecretState = iota

	// SecretDecrypted means decryption succeeded and Plaintext is valid.
	SecretDecrypted

	// SecretCorrupted means the envelope is structurally incomplete or the
	// authentication tag did not verify; Reason explains which.
	SecretCorrupted
)

// SecretField is the read-side view of an entry's secret: the envelope
// together with the decryption outcome.
type SecretField struct {
	// State tags which of the remaining fields are meaningful.
	State SecretState `json:"state"`

	// Plaintext is the decrypted secret. Valid only when State is
	// [SecretDecrypted].
	Plaintext string `json:"plaintext,omitempty"`

	// Reason describes the failure when State is [SecretCorrupted].
	Reason string `json:"reason,omitempty"`
}

// CredentialView pairs a stored entry with the outcome of its secret-field
// decryption. Metadata-level operations on the entry remain possible even
// when the secret is pending or corrupted.
type CredentialView struct {
	Entry  CredentialEntry `json:"entry"`
	Secret SecretField     `json:"secret"`
}
