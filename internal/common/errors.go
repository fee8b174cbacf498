// Package common defines shared constants and sentinel errors used across
// the vault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Storage failures (database, blob storage, filesystem).
	ErrStorage = errors.New("storage error")

	// Key management errors.
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmptyPassword   = errors.New("password cannot be empty")

	// Session errors.
	ErrNotUnlocked = errors.New("vault is not unlocked")

	// AEAD tag mismatch: tampered or corrupted ciphertext, or wrong key/nonce.
	ErrAuthFailed = errors.New("authentication failed")
)
