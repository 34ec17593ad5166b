// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultKeyTTL is how long a derived key stays usable after derivation.
const DefaultKeyTTL = 5 * time.Minute

// KeyCache amortizes the deliberately expensive key-derivation function
// across rapid successive operations with the same secret and salt. Entries
// expire after a fixed TTL, checked lazily on lookup (no background sweep),
// and the whole cache is invalidated on logout. The cache lives only in
// process memory and is never persisted.
type KeyCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]keyCacheEntry
}

type keyCacheEntry struct {
	key       []byte
	createdAt time.Time
}

func NewKeyCache(ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &KeyCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]keyCacheEntry),
	}
}

// GetOrDerive returns the cached key for (secret, salt, iterations) when a
// fresh one exists, otherwise calls derive and caches the result.
func (c *KeyCache) GetOrDerive(secret string, salt []byte, iterations uint32, derive func(secret string, salt []byte, iterations uint32) []byte) []byte {
	cacheKey := c.cacheKey(secret, salt, iterations)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[cacheKey]; ok {
		if c.now().Sub(entry.createdAt) < c.ttl {
			return append([]byte(nil), entry.key...)
		}
		delete(c.entries, cacheKey)
	}

	key := derive(secret, salt, iterations)
	c.entries[cacheKey] = keyCacheEntry{
		key:       append([]byte(nil), key...),
		createdAt: c.now(),
	}
	return key
}

// Invalidate drops every cached key. Called synchronously on logout.
func (c *KeyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for cacheKey, entry := range c.entries {
		for i := range entry.key {
			entry.key[i] = 0
		}
		delete(c.entries, cacheKey)
	}
}

// cacheKey builds the lookup key from a digest prefix of the secret plus the
// salt and cost factor. Hashing first means the map key never contains the
// secret itself.
func (c *KeyCache) cacheKey(secret string, salt []byte, iterations uint32) string {
	digest := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("%s:%s:%d", hex.EncodeToString(digest[:8]), hex.EncodeToString(salt), iterations)
}
