// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Envelope is the result of one authenticated-encryption operation over a
// single secret value: the ciphertext together with the salt used for key
// derivation, the AES-GCM nonce, and the authentication tag.
//
// The four fields travel together. A record where only some of them are
// present was corrupted in storage and must never be treated as decryptable.
type Envelope struct {
	// Ciphertext is the AES-256-GCM ciphertext of the secret value,
	// without the authentication tag.
	Ciphertext []byte `json:"ciphertext,omitempty"`

	// Salt is the random key-derivation salt. Generated fresh for every
	// encryption operation, never reused across records.
	Salt []byte `json:"salt,omitempty"`

	// IV is the AES-GCM nonce. Like the salt, fresh per operation.
	IV []byte `json:"iv,omitempty"`

	// AuthTag is the 16-byte GCM authentication tag. Verification failure
	// means a wrong key or tampered ciphertext.
	AuthTag []byte `json:"auth_tag,omitempty"`
}

// Empty reports whether no envelope field is set, i.e. the record carries no
// encrypted secret at all.
func (e Envelope) Empty() bool {
	return len(e.Ciphertext) == 0 && len(e.Salt) == 0 && len(e.IV) == 0 && len(e.AuthTag) == 0
}

// Complete reports whether all fields required for decryption are present.
// Note that the ciphertext itself may legitimately be zero-length (an
// encrypted empty string); completeness is decided by salt, iv and tag.
func (e Envelope) Complete() bool {
	return len(e.Salt) > 0 && len(e.IV) > 0 && len(e.AuthTag) > 0
}

// Partial reports whether the envelope is structurally corrupted: some fields
// are present but not all of the ones required for decryption.
func (e Envelope) Partial() bool {
	return !e.Empty() && !e.Complete()
}
