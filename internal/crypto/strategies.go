package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// legacyPBKDF2Iterations is the fixed cost factor format-1 records were
// written with.
const legacyPBKDF2Iterations = 100_000

// DerivationStrategy is one versioned way of turning a secret and a salt
// into an encryption key. The secret-composition scheme changed across
// application versions without a migration path; instead of guessing
// permutations on decryption failure, callers walk an explicit ordered list
// of strategies, each tagged with the bundle format version it serves.
type DerivationStrategy struct {
	// FormatVersion is the bundle/record format this strategy decrypts.
	FormatVersion int

	// Name identifies the strategy in logs.
	Name string

	// Derive produces the 256-bit key.
	Derive func(secret string, salt []byte, iterations uint32) []byte
}

// DerivationStrategies returns the strategies in attempt order, newest
// first. The Argon2id strategy covers current records; the PBKDF2 strategy
// covers format-1 records and bundles.
func DerivationStrategies(keychain KeyChainService) []DerivationStrategy {
	return []DerivationStrategy{
		{
			FormatVersion: 2,
			Name:          "argon2id",
			Derive:        keychain.DeriveKey,
		},
		{
			FormatVersion: 1,
			Name:          "pbkdf2-sha256",
			Derive: func(secret string, salt []byte, _ uint32) []byte {
				return pbkdf2.Key([]byte(secret), salt, legacyPBKDF2Iterations, keySize, sha256.New)
			},
		},
	}
}
