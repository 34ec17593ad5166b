package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidRemoteConfigs indicates invalid remote transport settings.
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidSyncConfigs indicates invalid sync-engine settings
	// (for example, an unknown conflict policy).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
