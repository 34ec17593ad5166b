package service

import "errors"

var (
	ErrEncryptionFailed     = errors.New("encryption failed")
	ErrCorruptedEntry       = errors.New("corrupted entry")
	ErrInvalidConfiguration = errors.New("invalid configuration")

	ErrSyncUnavailable  = errors.New("sync unavailable")
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrRetryExhausted   = errors.New("retry limit exhausted")
	ErrConflictNotFound = errors.New("conflict not found")

	ErrBundleInvalid = errors.New("invalid backup bundle")
)
