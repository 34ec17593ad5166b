// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

// KeyChainService is the pure cryptographic core of the vault. It knows
// nothing about storage, networking or entries; its only job is deriving
// keys and producing/consuming authenticated-encryption envelopes.
//
// Scheme:
//
//	salt, iv = GenerateSalt() + GenerateIV()
//	key      = DeriveKey(secret, salt, iterations)
//	ct, tag  = Encrypt(plaintext, key, iv)
//	plain    = Decrypt(ct, key, iv, tag)
type KeyChainService interface {
	// GenerateSalt generates a random 16-byte key-derivation salt.
	// The salt is not a secret; it is stored beside the ciphertext.
	GenerateSalt() ([]byte, error)

	// GenerateIV generates a random 12-byte AES-GCM nonce. A nonce must
	// never be reused under the same key.
	GenerateIV() ([]byte, error)

	// RandomBytes reads n bytes from the OS CSPRNG.
	RandomBytes(n int) ([]byte, error)

	// DeriveKey stretches secret and salt into a 256-bit key with
	// Argon2id. iterations is the explicit time cost: records written by
	// older application versions carry a lower cost factor, and a key
	// derived with the wrong cost cannot decrypt them.
	DeriveKey(secret string, salt []byte, iterations uint32) []byte

	// Encrypt seals plaintext with AES-256-GCM under key and iv and
	// returns the ciphertext and the 16-byte authentication tag
	// separately.
	Encrypt(plaintext, key, iv []byte) (ciphertext, tag []byte, err error)

	// Decrypt opens ciphertext with AES-256-GCM. It returns
	// [ErrAuthenticationFailed] when the tag does not verify; a
	// successful empty result is an encrypted empty string, not a
	// failure.
	Decrypt(ciphertext, key, iv, tag []byte) ([]byte, error)
}
