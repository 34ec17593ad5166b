// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-vault-local/internal/crypto"
	"github.com/MKhiriev/go-vault-local/internal/store"
	"github.com/MKhiriev/go-vault-local/models"
)

type credentialService struct {
	repository store.VaultRepository
	keychain   crypto.KeyChainService
	keys       *store.KeyCache
	sync       SyncService
}

func NewCredentialService(repository store.VaultRepository, keychain crypto.KeyChainService, keys *store.KeyCache, sync SyncService) CredentialService {
	if keys == nil {
		keys = store.NewKeyCache(store.DefaultKeyTTL)
	}
	return &credentialService{repository: repository, keychain: keychain, keys: keys, sync: sync}
}

func (c *credentialService) Create(ctx context.Context, entry models.CredentialEntry, plaintext, secret string) (models.CredentialEntry, error) {
	if plaintext != "" && secret == "" {
		return models.CredentialEntry{}, fmt.Errorf("%w: secret required to encrypt a credential", ErrInvalidConfiguration)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = &now
	entry.UpdatedAt = &now

	if secret != "" {
		envelope, err := c.seal(plaintext, secret)
		if err != nil {
			return models.CredentialEntry{}, err
		}
		entry.Secret = envelope
		entry.KDFIterations = crypto.DefaultIterations
	}

	if err := c.repository.SaveEntry(ctx, entry); err != nil {
		return models.CredentialEntry{}, fmt.Errorf("save created entry: %w", err)
	}

	snapshot := entry
	if err := c.sync.Enqueue(ctx, models.OpCreate, entry.ID, &snapshot, nil); err != nil {
		return models.CredentialEntry{}, fmt.Errorf("queue created entry for sync: %w", err)
	}

	return entry, nil
}

func (c *credentialService) Update(ctx context.Context, entry models.CredentialEntry, plaintext *string, secret string) (models.CredentialEntry, error) {
	prev, err := c.repository.GetEntry(ctx, entry.ID)
	if err != nil {
		return models.CredentialEntry{}, fmt.Errorf("load entry for update: %w", err)
	}

	now := time.Now().UTC()
	entry.CreatedAt = prev.CreatedAt
	entry.LastUsedAt = prev.LastUsedAt
	entry.UpdatedAt = &now

	switch {
	case plaintext == nil:
		entry.Secret = prev.Secret
		entry.KDFIterations = prev.KDFIterations
	case secret == "":
		return models.CredentialEntry{}, fmt.Errorf("%w: secret required to encrypt a credential", ErrInvalidConfiguration)
	case c.secretUnchanged(prev, *plaintext, secret):
		// same plaintext: keep the existing envelope instead of minting
		// new ciphertext
		entry.Secret = prev.Secret
		entry.KDFIterations = prev.KDFIterations
	default:
		envelope, sealErr := c.seal(*plaintext, secret)
		if sealErr != nil {
			return models.CredentialEntry{}, sealErr
		}
		entry.Secret = envelope
		entry.KDFIterations = crypto.DefaultIterations
	}

	if err = c.repository.SaveEntry(ctx, entry); err != nil {
		return models.CredentialEntry{}, fmt.Errorf("save updated entry: %w", err)
	}

	snapshot := entry
	if err = c.sync.Enqueue(ctx, models.OpUpdate, entry.ID, &snapshot, prev.UpdatedAt); err != nil {
		return models.CredentialEntry{}, fmt.Errorf("queue updated entry for sync: %w", err)
	}

	return entry, nil
}

func (c *credentialService) Get(ctx context.Context, id string) (models.CredentialEntry, error) {
	entry, err := c.repository.GetEntry(ctx, id)
	if err != nil {
		return models.CredentialEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func (c *credentialService) GetView(ctx context.Context, id, secret string) (models.CredentialView, error) {
	entry, err := c.repository.GetEntry(ctx, id)
	if err != nil {
		return models.CredentialView{}, fmt.Errorf("get entry: %w", err)
	}
	return models.CredentialView{Entry: entry, Secret: c.secretField(entry, secret)}, nil
}

func (c *credentialService) Reveal(ctx context.Context, id, secret string) (string, error) {
	entry, err := c.repository.GetEntry(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get entry for reveal: %w", err)
	}

	if entry.Secret.Empty() {
		return "", nil
	}
	if entry.Secret.Partial() {
		return "", fmt.Errorf("%w: envelope is missing fields", ErrCorruptedEntry)
	}

	plain, err := c.open(entry.Secret, secret, entry.KDFIterations)
	if err != nil {
		return "", fmt.Errorf("decrypt entry %s: %w", id, err)
	}

	now := time.Now().UTC()
	entry.LastUsedAt = &now
	// access-time bookkeeping must not fail the reveal
	_ = c.repository.SaveEntry(ctx, entry)

	return string(plain), nil
}

func (c *credentialService) ListAll(ctx context.Context, secret string) ([]models.CredentialView, error) {
	entries, err := c.repository.GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
	})

	views := make([]models.CredentialView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, models.CredentialView{
			Entry:  entry,
			Secret: c.secretField(entry, secret),
		})
	}
	return views, nil
}

// secretField decrypts one entry's envelope and tags the outcome. A failure
// is folded into the returned state so a single bad record cannot fail a
// whole listing.
func (c *credentialService) secretField(entry models.CredentialEntry, secret string) models.SecretField {
	switch {
	case secret == "":
		return models.SecretField{State: models.SecretPending}
	case entry.Secret.Empty():
		return models.SecretField{State: models.SecretDecrypted}
	case entry.Secret.Partial():
		return models.SecretField{State: models.SecretCorrupted, Reason: "envelope is missing fields"}
	}

	plain, err := c.open(entry.Secret, secret, entry.KDFIterations)
	if err != nil {
		return models.SecretField{State: models.SecretCorrupted, Reason: err.Error()}
	}
	return models.SecretField{State: models.SecretDecrypted, Plaintext: string(plain)}
}

func (c *credentialService) Search(ctx context.Context, query string) ([]models.CredentialEntry, error) {
	entries, err := c.repository.GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries for search: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	matched := make([]models.CredentialEntry, 0)
	for _, entry := range entries {
		if query == "" || matchesQuery(entry, query) {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Title) < strings.ToLower(matched[j].Title)
	})
	return matched, nil
}

func matchesQuery(entry models.CredentialEntry, query string) bool {
	for _, field := range []string{entry.Title, entry.Username, entry.Website, entry.Notes} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, tag := range entry.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func (c *credentialService) ByCategory(ctx context.Context, category string) ([]models.CredentialEntry, error) {
	entries, err := c.repository.GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries for category: %w", err)
	}

	matched := make([]models.CredentialEntry, 0)
	for _, entry := range entries {
		if strings.EqualFold(entry.Category, category) {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Title) < strings.ToLower(matched[j].Title)
	})
	return matched, nil
}

func (c *credentialService) Delete(ctx context.Context, id string) error {
	prev, err := c.repository.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("load entry for delete: %w", err)
	}

	if err = c.repository.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	if err = c.sync.Enqueue(ctx, models.OpDelete, id, nil, prev.UpdatedAt); err != nil {
		return fmt.Errorf("queue deleted entry for sync: %w", err)
	}

	return nil
}

func (c *credentialService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := c.repository.LoadCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return categories, nil
}

func (c *credentialService) AddCategory(ctx context.Context, category models.Category) error {
	categories, err := c.repository.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories before add: %w", err)
	}

	for _, existing := range categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil
		}
	}

	categories = append(categories, category)
	if err = c.repository.SaveCategories(ctx, categories); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

func (c *credentialService) InvalidateKeys() {
	c.keys.Invalidate()
}

// seal encrypts plaintext under a fresh salt and nonce and returns the
// complete envelope.
func (c *credentialService) seal(plaintext, secret string) (models.Envelope, error) {
	salt, err := c.keychain.GenerateSalt()
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: generate salt: %v", ErrEncryptionFailed, err)
	}
	iv, err := c.keychain.GenerateIV()
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: generate nonce: %v", ErrEncryptionFailed, err)
	}

	key := c.keys.GetOrDerive(secret, salt, crypto.DefaultIterations, c.keychain.DeriveKey)
	ciphertext, tag, err := c.keychain.Encrypt([]byte(plaintext), key, iv)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if len(plaintext) > 0 && len(ciphertext) == 0 {
		return models.Envelope{}, fmt.Errorf("%w: empty ciphertext for non-empty plaintext", ErrEncryptionFailed)
	}

	return models.Envelope{Ciphertext: ciphertext, Salt: salt, IV: iv, AuthTag: tag}, nil
}

func (c *credentialService) open(envelope models.Envelope, secret string, iterations uint32) ([]byte, error) {
	key := c.keys.GetOrDerive(secret, envelope.Salt, iterations, c.keychain.DeriveKey)
	return c.keychain.Decrypt(envelope.Ciphertext, key, envelope.IV, envelope.AuthTag)
}

// secretUnchanged reports whether plaintext matches the secret currently
// stored in prev. An unreadable envelope always counts as changed so that an
// update can repair it.
func (c *credentialService) secretUnchanged(prev models.CredentialEntry, plaintext, secret string) bool {
	if !prev.Secret.Complete() {
		return false
	}
	stored, err := c.open(prev.Secret, secret, prev.KDFIterations)
	if err != nil {
		return false
	}
	return string(stored) == plaintext
}
