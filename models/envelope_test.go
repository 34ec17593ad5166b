// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_StateHelpers(t *testing.T) {
	full := Envelope{Ciphertext: []byte{1}, Salt: []byte{2}, IV: []byte{3}, AuthTag: []byte{4}}

	tests := []struct {
		name     string
		envelope Envelope
		empty    bool
		complete bool
		partial  bool
	}{
		{"no fields", Envelope{}, true, false, false},
		{"all fields", full, false, true, false},
		{"empty ciphertext still complete", Envelope{Salt: []byte{2}, IV: []byte{3}, AuthTag: []byte{4}}, false, true, false},
		{"missing tag", Envelope{Ciphertext: []byte{1}, Salt: []byte{2}, IV: []byte{3}}, false, false, true},
		{"missing salt", Envelope{Ciphertext: []byte{1}, IV: []byte{3}, AuthTag: []byte{4}}, false, false, true},
		{"only ciphertext", Envelope{Ciphertext: []byte{1}}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.envelope.Empty())
			assert.Equal(t, tt.complete, tt.envelope.Complete())
			assert.Equal(t, tt.partial, tt.envelope.Partial())
		})
	}
}
