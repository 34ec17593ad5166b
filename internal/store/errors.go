package store

import "errors"

// Sentinel errors returned by storage methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrKeyNotFound is returned by a [KeyValue] Get when no value is
	// stored under the requested key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrEntryNotFound is returned when a repository operation targets a
	// credential entry that does not exist.
	ErrEntryNotFound = errors.New("credential entry not found")
)
