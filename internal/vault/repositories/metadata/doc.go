// Package metadata implements the vault's Secret Store: a small key/value
// table holding the PBKDF2 salt and the password verifier.
package metadata
