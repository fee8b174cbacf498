// Package cryptox holds the vault's cryptographic primitives: password-based
// key derivation, the password verifier, sub-key derivation, sealed JSON
// values and the chunked AES-GCM stream cipher used for media blobs.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the length of every symmetric key in bytes (AES-256).
	KeySize = 32
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
	// DefaultIterations is the PBKDF2 iteration count used for new and existing vaults.
	DefaultIterations = 120_000
)

// Sub-key labels for DeriveSubKey.
const (
	SubKeyBlob    = "dripvault/blob/v1"
	SubKeyCatalog = "dripvault/catalog/v1"
)

var ErrInvalidKDFInput = errors.New("invalid key derivation input")

// DeriveKey derives a KeySize master key from password and salt using
// PBKDF2 with HMAC-SHA-512. An empty password is accepted; callers reject
// blank passwords before calling.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidKDFInput)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidKDFInput, iterations)
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha512.New), nil
}

// MakeVerifier returns SHA-256(masterKey), the digest persisted to accept or
// reject later unlock attempts.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveSubKey expands masterKey into an independent KeySize key bound to
// label using HKDF-SHA-256.
func DeriveSubKey(masterKey []byte, label string) ([]byte, error) {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(label))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand %s: %w", label, err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptEntry serializes the given entry to JSON and encrypts it using AES-GCM.
//
// The key must be a valid AES key length (16, 24, or 32 bytes for AES-128,
// AES-192, or AES-256 respectively). A new random 12-byte nonce is generated
// for each encryption. The ciphertext and nonce are returned separately.
//
// Parameters:
//   - entry: any Go value that can be marshaled to JSON.
//   - key: the AES encryption key.
//
// Returns:
//   - ciphertext: the encrypted JSON data.
//   - nonce: the randomly generated 12-byte nonce.
//   - err: non-nil if serialization or encryption fails.
//
// Example:
//
//	meta := MediaMeta{OriginalName: "IMG_0001.jpg", MimeType: "image/jpeg"}
//
//	ciphertext, nonce, err := EncryptEntry(meta, catalogKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {

	// serializing JSON
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())

	// encrypting
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// DecryptEntry decrypts the given ciphertext using AES-GCM and unmarshals
// the resulting JSON into the provided value v.
//
// The key must be the same AES key that was used to encrypt the data,
// and the nonce must be the same 12-byte nonce generated during encryption.
// A tag mismatch is reported as common.ErrAuthFailed.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return fmt.Errorf("%w: nonce must be %d bytes", common.ErrAuthFailed, aesgcm.NonceSize())
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrAuthFailed, err)
	}

	return json.Unmarshal(plaintext, v)
}
