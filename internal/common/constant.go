// Package common contains shared constants and sentinel errors used across
// dripvault components.
package common

// Secret Store keys. Values are raw bytes.
const (
	SecretKeySalt     = "salt"
	SecretKeyVerifier = "verifier"
)

// SaltSize is the length of the per-vault PBKDF2 salt in bytes.
const SaltSize = 16
