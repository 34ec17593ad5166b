// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MKhiriev/go-vault-local/internal/adapter"
	"github.com/MKhiriev/go-vault-local/internal/config"
	"github.com/MKhiriev/go-vault-local/internal/crypto"
	"github.com/MKhiriev/go-vault-local/internal/store"
	"github.com/MKhiriev/go-vault-local/models"
)

const (
	// backupKeyDomain separates per-entry backup keys from the live
	// store's keys: compromising a backup must not compromise the store,
	// and vice versa.
	backupKeyDomain = "::vault-backup-v2"

	// bundleKeyDomain separates the whole-bundle wrapping key from both
	// the live store and the per-entry backup keys.
	bundleKeyDomain = "::vault-backup-bundle-v2"

	metadataPrefix  = "METADATA_V1:"
	metadataSuffix  = "|||"
	encryptedPrefix = "ENCRYPTED_V1:"

	// gzipPrefix tags a compressed payload explicitly. Untagged gzip
	// (recognised by the magic bytes) is still accepted on restore for
	// bundles written by older application versions.
	gzipPrefix = "GZIP_V1:"

	encryptionAESGCM = "aes-256-gcm"
	encryptionNone   = "none"
	compressionGzip  = "gzip"
	compressionNone  = "none"
)

type backupService struct {
	repository store.VaultRepository
	keychain   crypto.KeyChainService
	strategies []crypto.DerivationStrategy
	transport  adapter.BlobTransport

	backupDir  string
	appVersion string
	deviceID   string
}

func NewBackupService(repository store.VaultRepository, keychain crypto.KeyChainService, transport adapter.BlobTransport, app config.App, backup config.Backup) BackupService {
	return &backupService{
		repository: repository,
		keychain:   keychain,
		strategies: crypto.DerivationStrategies(keychain),
		transport:  transport,
		backupDir:  backup.Dir,
		appVersion: app.Version,
		deviceID:   app.DeviceID,
	}
}

func (b *backupService) CreateBackup(ctx context.Context, opts models.BackupOptions) (models.BackupReport, error) {
	if opts.Encrypt && opts.Secret == "" {
		return models.BackupReport{}, fmt.Errorf("%w: bundle encryption requested without a secret", ErrInvalidConfiguration)
	}

	entries, err := b.repository.GetAllEntries(ctx)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("load entries for backup: %w", err)
	}
	categories, err := b.repository.LoadCategories(ctx)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("load categories for backup: %w", err)
	}
	settings, err := b.repository.LoadSettings(ctx)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("load settings for backup: %w", err)
	}
	domains, err := b.repository.LoadTrustedDomains(ctx)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("load trusted domains for backup: %w", err)
	}

	bundled := make([]models.CredentialEntry, 0, len(entries))
	for _, entry := range entries {
		bundled = append(bundled, b.rewrapForBackup(entry, opts.Secret))
	}

	now := time.Now().UTC()
	metadata := models.BackupMetadata{
		FormatVersion: models.BackupFormatVersion,
		CreatedAt:     now,
		EntryCount:    len(bundled),
		CategoryCount: len(categories),
		DomainCount:   len(domains),
		AppVersion:    b.appVersion,
		DeviceID:      b.deviceID,
		Encryption:    encryptionNone,
		Compression:   compressionNone,
	}
	if opts.Encrypt {
		metadata.Encryption = encryptionAESGCM
	}
	if opts.Compress {
		metadata.Compression = compressionGzip
	}

	bundle := models.BackupBundle{
		FormatVersion:  models.BackupFormatVersion,
		CreatedAt:      now,
		Entries:        bundled,
		Categories:     categories,
		Settings:       settings,
		TrustedDomains: domains,
		Metadata:       metadata,
	}

	serialized, err := json.Marshal(bundle)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("serialize bundle: %w", err)
	}

	payload := string(serialized)
	if opts.Compress {
		compressed, gzErr := gzipBytes(serialized)
		if gzErr != nil {
			return models.BackupReport{}, fmt.Errorf("compress bundle: %w", gzErr)
		}
		payload = gzipPrefix + base64.StdEncoding.EncodeToString(compressed)
	}
	if opts.Encrypt {
		payload, err = b.sealBundle(payload, opts.Secret)
		if err != nil {
			return models.BackupReport{}, err
		}
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return models.BackupReport{}, fmt.Errorf("serialize bundle metadata: %w", err)
	}
	content := metadataPrefix + base64.StdEncoding.EncodeToString(metadataJSON) + metadataSuffix + payload

	path := opts.Path
	if path == "" {
		path = filepath.Join(b.backupDir, fmt.Sprintf("vault-backup-%s.vbk", now.Format("20060102-150405")))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o700); err != nil {
			return models.BackupReport{}, fmt.Errorf("create backup directory: %w", err)
		}
	}
	if err = os.WriteFile(path, []byte(content), 0o600); err != nil {
		return models.BackupReport{}, fmt.Errorf("write bundle file: %w", err)
	}

	return models.BackupReport{
		FilePath:   path,
		Size:       int64(len(content)),
		EntryCount: len(bundled),
	}, nil
}

// rewrapForBackup re-encrypts one entry's secret under the backup key
// domain. An entry whose envelope cannot be read is carried verbatim: a
// backup never silently drops records, the restore side decides what to do
// with them.
func (b *backupService) rewrapForBackup(entry models.CredentialEntry, secret string) models.CredentialEntry {
	if secret == "" || !entry.Secret.Complete() {
		return entry
	}

	liveKey := b.keychain.DeriveKey(secret, entry.Secret.Salt, entry.KDFIterations)
	plain, err := b.keychain.Decrypt(entry.Secret.Ciphertext, liveKey, entry.Secret.IV, entry.Secret.AuthTag)
	if err != nil {
		return entry
	}

	envelope, err := b.sealEntry(plain, secret+backupKeyDomain)
	if err != nil {
		return entry
	}

	entry.Secret = envelope
	entry.KDFIterations = crypto.DefaultIterations
	return entry
}

func (b *backupService) sealEntry(plain []byte, domainSecret string) (models.Envelope, error) {
	salt, err := b.keychain.GenerateSalt()
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: generate salt: %v", ErrEncryptionFailed, err)
	}
	iv, err := b.keychain.GenerateIV()
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: generate nonce: %v", ErrEncryptionFailed, err)
	}

	key := b.keychain.DeriveKey(domainSecret, salt, crypto.DefaultIterations)
	ciphertext, tag, err := b.keychain.Encrypt(plain, key, iv)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return models.Envelope{Ciphertext: ciphertext, Salt: salt, IV: iv, AuthTag: tag}, nil
}

func (b *backupService) sealBundle(payload, secret string) (string, error) {
	envelope, err := b.sealEntry([]byte(payload), secret+bundleKeyDomain)
	if err != nil {
		return "", err
	}

	return encryptedPrefix + strings.Join([]string{
		base64.StdEncoding.EncodeToString(envelope.Salt),
		base64.StdEncoding.EncodeToString(envelope.IV),
		base64.StdEncoding.EncodeToString(envelope.Ciphertext),
		base64.StdEncoding.EncodeToString(envelope.AuthTag),
	}, ":"), nil
}

func (b *backupService) RestoreFromBackup(ctx context.Context, path string, opts models.RestoreOptions) (models.RestoreResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.RestoreResult{}, fmt.Errorf("read bundle file: %w", err)
	}

	bundle, err := b.decodeBundle(string(content), opts.Secret)
	if err != nil {
		return models.RestoreResult{}, err
	}

	var result models.RestoreResult
	restorable := make([]models.CredentialEntry, 0, len(bundle.Entries))
	for _, entry := range bundle.Entries {
		restored, ok := b.unwrapFromBackup(entry, bundle.FixedSalt, opts.Secret)
		if !ok {
			result.Corrupted++
			result.CorruptedIDs = append(result.CorruptedIDs, entry.ID)
			continue
		}
		restorable = append(restorable, restored)
	}

	switch opts.Strategy {
	case models.RestoreMerge:
		err = b.mergeEntries(ctx, restorable, opts.OverwriteDuplicates, &result)
	default: // replace
		err = b.replaceEntries(ctx, restorable, &result)
	}
	if err != nil {
		return result, err
	}

	if err = b.restoreAuxiliary(ctx, bundle, opts.Strategy); err != nil {
		return result, err
	}

	return result, nil
}

// decodeBundle turns raw file or transport content into a parsed, validated
// bundle: metadata prefix stripped, whole-bundle envelope opened, transport
// base64 undone, compression reversed.
func (b *backupService) decodeBundle(content, secret string) (models.BackupBundle, error) {
	payload := content
	if strings.HasPrefix(payload, metadataPrefix) {
		rest := payload[len(metadataPrefix):]
		split := strings.Index(rest, metadataSuffix)
		if split < 0 {
			return models.BackupBundle{}, fmt.Errorf("%w: metadata prefix without terminator", ErrBundleInvalid)
		}
		payload = rest[split+len(metadataSuffix):]
	}

	// a text transport may hand us the whole payload base64-wrapped;
	// undo exactly one layer before looking at format tags
	payload = undoTransportEncoding(payload)

	if strings.HasPrefix(payload, encryptedPrefix) {
		opened, err := b.openBundle(payload, secret)
		if err != nil {
			return models.BackupBundle{}, err
		}
		payload = opened
	}

	serialized, err := decompressPayload(payload)
	if err != nil {
		return models.BackupBundle{}, err
	}

	return parseBundle(serialized)
}

// undoTransportEncoding decodes at most one base64 transport layer. Content
// already carrying a known tag, or already parseable as JSON, is returned
// untouched; valid base64 alone never implies compression.
func undoTransportEncoding(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, encryptedPrefix) ||
		strings.HasPrefix(trimmed, metadataPrefix) ||
		strings.HasPrefix(trimmed, gzipPrefix) ||
		strings.HasPrefix(trimmed, "{") ||
		isGzip([]byte(trimmed)) {
		return trimmed
	}

	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return trimmed
	}
	return string(decoded)
}

func (b *backupService) openBundle(payload, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: encrypted bundle requires a secret", ErrInvalidConfiguration)
	}

	fields := strings.Split(payload[len(encryptedPrefix):], ":")
	if len(fields) != 4 {
		return "", fmt.Errorf("%w: malformed encrypted payload", ErrBundleInvalid)
	}

	parts := make([][]byte, 0, len(fields))
	for _, field := range fields {
		decoded, err := base64.StdEncoding.DecodeString(field)
		if err != nil {
			return "", fmt.Errorf("%w: malformed encrypted payload field: %v", ErrBundleInvalid, err)
		}
		parts = append(parts, decoded)
	}
	salt, iv, ciphertext, tag := parts[0], parts[1], parts[2], parts[3]

	var lastErr error
	for _, strategy := range b.strategies {
		key := strategy.Derive(secret+bundleKeyDomain, salt, crypto.DefaultIterations)
		plain, err := b.keychain.Decrypt(ciphertext, key, iv, tag)
		if err == nil {
			return string(plain), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("open bundle envelope: %w", lastErr)
}

func decompressPayload(payload string) ([]byte, error) {
	switch {
	case strings.HasPrefix(payload, gzipPrefix):
		compressed, err := base64.StdEncoding.DecodeString(payload[len(gzipPrefix):])
		if err != nil {
			return nil, fmt.Errorf("%w: malformed compressed payload: %v", ErrBundleInvalid, err)
		}
		return gunzipBytes(compressed)
	case isGzip([]byte(payload)):
		// untagged gzip written by older application versions
		return gunzipBytes([]byte(payload))
	default:
		return []byte(payload), nil
	}
}

// parseBundle rejects a bundle missing any required field wholesale; there
// is no partial bundle acceptance.
func parseBundle(serialized []byte) (models.BackupBundle, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(serialized, &fields); err != nil {
		return models.BackupBundle{}, fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}
	for _, required := range []string{"format_version", "created_at", "entries", "categories", "metadata"} {
		if _, ok := fields[required]; !ok {
			return models.BackupBundle{}, fmt.Errorf("%w: missing required field %q", ErrBundleInvalid, required)
		}
	}

	var bundle models.BackupBundle
	if err := json.Unmarshal(serialized, &bundle); err != nil {
		return models.BackupBundle{}, fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}
	if bundle.FormatVersion < 1 || bundle.FormatVersion > models.BackupFormatVersion {
		return models.BackupBundle{}, fmt.Errorf("%w: unsupported format version %d", ErrBundleInvalid, bundle.FormatVersion)
	}
	return bundle, nil
}

// unwrapFromBackup decrypts one bundled entry's secret and re-encrypts it
// for the live store. It reports false for an entry that cannot be
// decrypted with any known derivation strategy; such entries are excluded
// rather than imported half-readable.
func (b *backupService) unwrapFromBackup(entry models.CredentialEntry, fixedSalt []byte, secret string) (models.CredentialEntry, bool) {
	if entry.Secret.Empty() || secret == "" {
		return entry, true
	}

	salt := entry.Secret.Salt
	if len(salt) == 0 && len(fixedSalt) > 0 {
		salt = fixedSalt
	}
	if len(salt) == 0 || len(entry.Secret.IV) == 0 || len(entry.Secret.AuthTag) == 0 {
		return models.CredentialEntry{}, false
	}

	var plain []byte
	var err error
	decrypted := false
	for _, strategy := range b.strategies {
		key := strategy.Derive(secret+backupKeyDomain, salt, entry.KDFIterations)
		plain, err = b.keychain.Decrypt(entry.Secret.Ciphertext, key, entry.Secret.IV, entry.Secret.AuthTag)
		if err == nil {
			decrypted = true
			break
		}
	}
	if !decrypted {
		return models.CredentialEntry{}, false
	}

	envelope, err := b.sealEntry(plain, secret)
	if err != nil {
		return models.CredentialEntry{}, false
	}
	entry.Secret = envelope
	entry.KDFIterations = crypto.DefaultIterations
	return entry, true
}

func (b *backupService) replaceEntries(ctx context.Context, entries []models.CredentialEntry, result *models.RestoreResult) error {
	if err := b.repository.DeleteAllEntries(ctx); err != nil {
		return fmt.Errorf("clear entries before restore: %w", err)
	}
	for _, entry := range entries {
		if err := b.repository.SaveEntry(ctx, entry); err != nil {
			return fmt.Errorf("restore entry %s: %w", entry.ID, err)
		}
		result.Restored++
	}
	return nil
}

func (b *backupService) mergeEntries(ctx context.Context, entries []models.CredentialEntry, overwrite bool, result *models.RestoreResult) error {
	existing, err := b.repository.GetAllEntries(ctx)
	if err != nil {
		return fmt.Errorf("load entries before merge: %w", err)
	}

	index := make(map[string]models.CredentialEntry, len(existing))
	for _, entry := range existing {
		index[duplicateKey(entry)] = entry
	}

	for _, entry := range entries {
		duplicate, found := index[duplicateKey(entry)]
		if found && !overwrite {
			result.Skipped++
			continue
		}
		if found {
			if err = b.repository.DeleteEntry(ctx, duplicate.ID); err != nil {
				return fmt.Errorf("overwrite duplicate %s: %w", duplicate.ID, err)
			}
		}
		if err = b.repository.SaveEntry(ctx, entry); err != nil {
			return fmt.Errorf("restore entry %s: %w", entry.ID, err)
		}
		if found {
			result.Overwritten++
		} else {
			result.Restored++
		}
	}
	return nil
}

func duplicateKey(entry models.CredentialEntry) string {
	return strings.ToLower(entry.Title) + "\x00" + strings.ToLower(entry.Username)
}

func (b *backupService) restoreAuxiliary(ctx context.Context, bundle models.BackupBundle, strategy models.MergeStrategy) error {
	categories := bundle.Categories
	domains := bundle.TrustedDomains

	if strategy == models.RestoreMerge {
		existingCategories, err := b.repository.LoadCategories(ctx)
		if err != nil {
			return fmt.Errorf("load categories before merge: %w", err)
		}
		categories = mergeCategories(existingCategories, bundle.Categories)

		existingDomains, err := b.repository.LoadTrustedDomains(ctx)
		if err != nil {
			return fmt.Errorf("load trusted domains before merge: %w", err)
		}
		domains = mergeStrings(existingDomains, bundle.TrustedDomains)
	}

	if err := b.repository.SaveCategories(ctx, categories); err != nil {
		return fmt.Errorf("restore categories: %w", err)
	}
	if err := b.repository.SaveTrustedDomains(ctx, domains); err != nil {
		return fmt.Errorf("restore trusted domains: %w", err)
	}
	if strategy != models.RestoreMerge && bundle.Settings != nil {
		if err := b.repository.SaveSettings(ctx, bundle.Settings); err != nil {
			return fmt.Errorf("restore settings: %w", err)
		}
	}
	return nil
}

func mergeCategories(existing, incoming []models.Category) []models.Category {
	merged := append([]models.Category(nil), existing...)
	for _, category := range incoming {
		known := false
		for _, have := range merged {
			if strings.EqualFold(have.Name, category.Name) {
				known = true
				break
			}
		}
		if !known {
			merged = append(merged, category)
		}
	}
	return merged
}

func mergeStrings(existing, incoming []string) []string {
	merged := append([]string(nil), existing...)
	for _, value := range incoming {
		known := false
		for _, have := range merged {
			if strings.EqualFold(have, value) {
				known = true
				break
			}
		}
		if !known {
			merged = append(merged, value)
		}
	}
	return merged
}

func (b *backupService) ExtractMetadata(_ context.Context, path, secret string) (*models.BackupMetadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle file: %w", err)
	}

	text := string(content)
	if strings.HasPrefix(text, metadataPrefix) {
		rest := text[len(metadataPrefix):]
		split := strings.Index(rest, metadataSuffix)
		if split < 0 {
			return nil, nil
		}
		decoded, decErr := base64.StdEncoding.DecodeString(rest[:split])
		if decErr != nil {
			return nil, nil
		}
		var metadata models.BackupMetadata
		if json.Unmarshal(decoded, &metadata) != nil {
			return nil, nil
		}
		return &metadata, nil
	}

	if secret == "" {
		return nil, nil
	}
	bundle, err := b.decodeBundle(text, secret)
	if err != nil {
		return nil, nil
	}
	return &bundle.Metadata, nil
}

func (b *backupService) UploadBackup(ctx context.Context, localPath, remoteName string) (string, error) {
	if b.transport == nil {
		return "", fmt.Errorf("%w: no blob transport configured", ErrInvalidConfiguration)
	}
	id, err := b.transport.Upload(ctx, localPath, remoteName)
	if err != nil {
		return "", fmt.Errorf("upload bundle: %w", err)
	}
	return id, nil
}

func (b *backupService) DownloadBackup(ctx context.Context, id, localPath string) error {
	if b.transport == nil {
		return fmt.Errorf("%w: no blob transport configured", ErrInvalidConfiguration)
	}
	if err := b.transport.Download(ctx, id, localPath); err != nil {
		return fmt.Errorf("download bundle: %w", err)
	}
	return nil
}

func (b *backupService) ListRemoteBackups(ctx context.Context) ([]RemoteBackup, error) {
	if b.transport == nil {
		return nil, fmt.Errorf("%w: no blob transport configured", ErrInvalidConfiguration)
	}
	blobs, err := b.transport.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote bundles: %w", err)
	}

	backups := make([]RemoteBackup, 0, len(blobs))
	for _, blob := range blobs {
		backups = append(backups, RemoteBackup{
			ID:        blob.ID,
			Name:      blob.Name,
			Size:      blob.Size,
			CreatedAt: blob.CreatedTime,
		})
	}
	return backups, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}
	defer zr.Close()

	decompressed, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}
	return decompressed, nil
}

func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}
