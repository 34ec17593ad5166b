package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-vault-local/internal/logger"
	"github.com/MKhiriev/go-vault-local/models"
)

// Key layout inside the KeyValue backend. Entries are one document per key;
// the queue, conflicts and the small lists are single documents because the
// backend gives no multi-key transactions.
const (
	entryKeyPrefix    = "entry:"
	queueKey          = "sync:queue"
	conflictsKey      = "sync:conflicts"
	categoriesKey     = "vault:categories"
	settingsKey       = "vault:settings"
	trustedDomainsKey = "vault:trusted_domains"
)

type vaultRepository struct {
	kv     KeyValue
	logger *logger.Logger
}

func NewVaultRepository(kv KeyValue, logger *logger.Logger) VaultRepository {
	return &vaultRepository{
		kv:     kv,
		logger: logger,
	}
}

func (r *vaultRepository) SaveEntry(ctx context.Context, entry models.CredentialEntry) error {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode credential entry (id=%s): %w", entry.ID, err)
	}

	if err = r.kv.Set(ctx, entryKeyPrefix+entry.ID, payload); err != nil {
		log.Err(err).
			Str("func", "vaultRepository.SaveEntry").
			Str("entry_id", entry.ID).
			Msg("failed to persist credential entry")
		return fmt.Errorf("failed to save credential entry (id=%s): %w", entry.ID, err)
	}

	return nil
}

func (r *vaultRepository) GetEntry(ctx context.Context, id string) (models.CredentialEntry, error) {
	payload, err := r.kv.Get(ctx, entryKeyPrefix+id)
	if errors.Is(err, ErrKeyNotFound) {
		return models.CredentialEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return models.CredentialEntry{}, fmt.Errorf("failed to load credential entry (id=%s): %w", id, err)
	}

	var entry models.CredentialEntry
	if err = json.Unmarshal(payload, &entry); err != nil {
		return models.CredentialEntry{}, fmt.Errorf("decode credential entry (id=%s): %w", id, err)
	}

	return entry, nil
}

func (r *vaultRepository) GetAllEntries(ctx context.Context) ([]models.CredentialEntry, error) {
	log := logger.FromContext(ctx)

	keys, err := r.kv.Keys(ctx, entryKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list credential entry keys: %w", err)
	}

	entries := make([]models.CredentialEntry, 0, len(keys))
	for _, key := range keys {
		payload, getErr := r.kv.Get(ctx, key)
		if errors.Is(getErr, ErrKeyNotFound) {
			// Deleted between Keys and Get; skip.
			continue
		}
		if getErr != nil {
			return nil, fmt.Errorf("failed to load credential entry (key=%s): %w", key, getErr)
		}

		var entry models.CredentialEntry
		if err = json.Unmarshal(payload, &entry); err != nil {
			log.Err(err).
				Str("func", "vaultRepository.GetAllEntries").
				Str("key", key).
				Msg("failed to decode stored credential entry")
			return nil, fmt.Errorf("decode credential entry (key=%s): %w", key, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *vaultRepository) DeleteEntry(ctx context.Context, id string) error {
	if err := r.kv.Delete(ctx, entryKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete credential entry (id=%s): %w", id, err)
	}
	return nil
}

func (r *vaultRepository) DeleteAllEntries(ctx context.Context) error {
	keys, err := r.kv.Keys(ctx, entryKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list credential entry keys: %w", err)
	}
	if err = r.kv.DeleteAll(ctx, keys); err != nil {
		return fmt.Errorf("failed to delete credential entries: %w", err)
	}
	return nil
}

func (r *vaultRepository) SaveQueue(ctx context.Context, ops []models.PendingOperation) error {
	return r.saveDocument(ctx, queueKey, ops)
}

func (r *vaultRepository) LoadQueue(ctx context.Context) ([]models.PendingOperation, error) {
	var ops []models.PendingOperation
	if err := r.loadDocument(ctx, queueKey, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *vaultRepository) SaveConflicts(ctx context.Context, conflicts []models.SyncConflict) error {
	return r.saveDocument(ctx, conflictsKey, conflicts)
}

func (r *vaultRepository) LoadConflicts(ctx context.Context) ([]models.SyncConflict, error) {
	var conflicts []models.SyncConflict
	if err := r.loadDocument(ctx, conflictsKey, &conflicts); err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *vaultRepository) SaveCategories(ctx context.Context, categories []models.Category) error {
	return r.saveDocument(ctx, categoriesKey, categories)
}

func (r *vaultRepository) LoadCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.loadDocument(ctx, categoriesKey, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *vaultRepository) SaveSettings(ctx context.Context, settings map[string]any) error {
	return r.saveDocument(ctx, settingsKey, settings)
}

func (r *vaultRepository) LoadSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := r.loadDocument(ctx, settingsKey, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = make(map[string]any)
	}
	return settings, nil
}

func (r *vaultRepository) SaveTrustedDomains(ctx context.Context, domains []string) error {
	return r.saveDocument(ctx, trustedDomainsKey, domains)
}

func (r *vaultRepository) LoadTrustedDomains(ctx context.Context) ([]string, error) {
	var domains []string
	if err := r.loadDocument(ctx, trustedDomainsKey, &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

func (r *vaultRepository) saveDocument(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", documentName(key), err)
	}
	if err = r.kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to save %s document: %w", documentName(key), err)
	}
	return nil
}

// loadDocument decodes the document under key into target. An absent key is
// not an error: target keeps its zero value.
func (r *vaultRepository) loadDocument(ctx context.Context, key string, target any) error {
	payload, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s document: %w", documentName(key), err)
	}
	if err = json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s document: %w", documentName(key), err)
	}
	return nil
}

func documentName(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
