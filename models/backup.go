// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// BackupFormatVersion is the bundle format produced by this application
// version. Version 1 bundles (legacy PBKDF2 key derivation, untagged gzip
// payloads) are still accepted on restore.
const BackupFormatVersion = 2

// BackupBundle is a complete serialized snapshot of the credential store.
// A bundle is immutable once written; a new backup is always a new bundle.
type BackupBundle struct {
	// FormatVersion identifies the bundle layout and the key-derivation
	// strategy its entries were encrypted with.
	FormatVersion int `json:"format_version"`

	// CreatedAt is the bundle creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Entries are the credential entries, each with its secret
	// re-encrypted under the backup key-derivation domain.
	Entries []CredentialEntry `json:"entries"`

	// Categories are the entry groups known at backup time.
	Categories []Category `json:"categories"`

	// Settings is the opaque application settings document.
	Settings map[string]any `json:"settings,omitempty"`

	// TrustedDomains is the user's trusted-domain list.
	TrustedDomains []string `json:"trusted_domains,omitempty"`

	// Metadata duplicates the bundle shape description that is also
	// written to the unencrypted prefix, so the two can be cross-checked.
	Metadata BackupMetadata `json:"metadata"`

	// FixedSalt, when present, pins the salt the master secret must be
	// re-derived with. It exists as a compatibility seam for bundles
	// written before the salt-derivation scheme changed.
	FixedSalt []byte `json:"fixed_salt,omitempty"`
}

// BackupMetadata describes the shape of a bundle. It is stored both inside
// the bundle and, base64-encoded, in an unencrypted prefix so that counts and
// format flags are readable without the decryption secret.
type BackupMetadata struct {
	FormatVersion int       `json:"format_version"`
	CreatedAt     time.Time `json:"created_at"`
	EntryCount    int       `json:"entry_count"`
	CategoryCount int       `json:"category_count"`
	DomainCount   int       `json:"domain_count"`
	AppVersion    string    `json:"app_version,omitempty"`
	DeviceID      string    `json:"device_id,omitempty"`

	// Encryption is "aes-256-gcm" when the whole bundle is wrapped in an
	// envelope, "none" otherwise.
	Encryption string `json:"encryption"`

	// Compression is "gzip" or "none".
	Compression string `json:"compression"`
}

// BackupOptions control bundle creation.
type BackupOptions struct {
	// Path is the destination file path.
	Path string

	// Secret is the master secret. When set, entry secrets are
	// re-encrypted under the backup key-derivation domain; required when
	// Encrypt is set.
	Secret string

	// Compress enables gzip compression of the serialized bundle.
	Compress bool

	// Encrypt wraps the whole bundle in an authenticated-encryption
	// envelope.
	Encrypt bool
}

// BackupReport summarises a created bundle.
type BackupReport struct {
	FilePath   string `json:"file_path"`
	Size       int64  `json:"size"`
	EntryCount int    `json:"entry_count"`
}

// MergeStrategy selects how restored entries are combined with the existing
// store contents.
type MergeStrategy string

const (
	// RestoreReplace clears all existing entries before inserting.
	RestoreReplace MergeStrategy = "replace"

	// RestoreMerge keeps existing entries; incoming entries matching an
	// existing one by case-insensitive (title, username) are skipped
	// unless overwriting is requested.
	RestoreMerge MergeStrategy = "merge"
)

// RestoreOptions control bundle restoration.
type RestoreOptions struct {
	// Secret is the master secret used to unwrap the bundle envelope and
	// decrypt individual entry secrets.
	Secret string

	// Strategy selects replace or merge semantics.
	Strategy MergeStrategy

	// OverwriteDuplicates replaces an existing duplicate with the
	// incoming entry instead of skipping it. Only meaningful with
	// [RestoreMerge].
	OverwriteDuplicates bool
}

// RestoreResult summarises a restore run with per-item counts.
type RestoreResult struct {
	// Restored is the number of entries inserted into the store.
	Restored int `json:"restored"`

	// Skipped is the number of duplicates left untouched under merge
	// semantics.
	Skipped int `json:"skipped"`

	// Overwritten is the number of duplicates replaced because
	// overwriting was requested.
	Overwritten int `json:"overwritten"`

	// Corrupted is the number of entries whose secret failed to decrypt
	// during restore and were excluded from the result.
	Corrupted int `json:"corrupted"`

	// CorruptedIDs identifies the excluded entries.
	CorruptedIDs []string `json:"corrupted_ids,omitempty"`
}
