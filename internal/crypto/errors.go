package crypto

import "errors"

var (
	// ErrAuthenticationFailed is returned by Decrypt when the GCM
	// authentication tag does not verify: either the key is wrong (wrong
	// secret, wrong salt, or wrong derivation cost) or the ciphertext was
	// tampered with. Decrypt never returns plausible-looking garbage.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKeyLength is returned when a key of a length other than
	// 32 bytes is supplied to the AES-256-GCM primitives.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidIVLength is returned when the supplied nonce is not the
	// 12 bytes AES-GCM expects.
	ErrInvalidIVLength = errors.New("invalid iv length")
)
