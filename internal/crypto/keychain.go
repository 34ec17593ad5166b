// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	ivSize   = 12
	keySize  = 32
	tagSize  = 16

	// DefaultIterations is the Argon2id time cost for newly written
	// envelopes. Entries persist the cost they were written with, so
	// raising this value does not orphan old records.
	DefaultIterations uint32 = 3
)

// keyChainService is the private implementation of [KeyChainService].
type keyChainService struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop). The time
	// cost is deliberately not here: it is an explicit argument of
	// DeriveKey and is persisted per record.
	argonMemory  uint32
	argonThreads uint8
}

// NewKeyChainService constructs a [KeyChainService] with the Argon2id
// parameters recommended by OWASP (2024): 64 MiB memory cost and 4 threads.
func NewKeyChainService() KeyChainService {
	return &keyChainService{
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
	}
}

// GenerateSalt implements [KeyChainService]. It reads 16 random bytes from
// the OS CSPRNG. Returns an error if the random read fails.
func (k *keyChainService) GenerateSalt() ([]byte, error) {
	return k.RandomBytes(saltSize)
}

// GenerateIV implements [KeyChainService]. It reads 12 random bytes from the
// OS CSPRNG. Returns an error if the random read fails.
func (k *keyChainService) GenerateIV() ([]byte, error) {
	return k.RandomBytes(ivSize)
}

// RandomBytes implements [KeyChainService].
func (k *keyChainService) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return buf, nil
}

// DeriveKey implements [KeyChainService]. It derives a 256-bit key from
// secret and salt using Argon2id with the given time cost and the memory and
// parallelism parameters stored in the receiver. The result exists only in
// memory and is never persisted.
func (k *keyChainService) DeriveKey(secret string, salt []byte, iterations uint32) []byte {
	if iterations == 0 {
		iterations = DefaultIterations
	}
	return argon2.IDKey(
		[]byte(secret),
		salt,
		iterations,
		k.argonMemory,
		k.argonThreads,
		keySize,
	)
}

// Encrypt implements [KeyChainService]. The caller supplies the nonce so
// that the envelope can store it beside the ciphertext; it must come from
// GenerateIV and never be reused.
func (k *keyChainService) Encrypt(plaintext, key, iv []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidIVLength, len(iv))
	}

	// Seal appends the tag to the ciphertext; split it back out so the
	// envelope carries the two separately.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - tagSize
	return sealed[:split], sealed[split:], nil
}

// Decrypt implements [KeyChainService]. A tag-verification failure is
// reported as [ErrAuthenticationFailed]; it almost always means the secret
// (and therefore the derived key) is wrong, or the record was tampered with.
func (k *keyChainService) Decrypt(ciphertext, key, iv, tag []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIVLength, len(iv))
	}
	if len(tag) != tagSize {
		return nil, fmt.Errorf("%w: tag length %d", ErrAuthenticationFailed, len(tag))
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
