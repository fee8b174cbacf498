// Package services implements the vault engine: password-gated key
// management, the daily cycle scheduler and the orchestrator that ties them
// to encrypted blob storage and the persistent store.
package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/cryptox"
	"github.com/dmitrijs2005/dripvault/internal/vault/repositories/metadata"
)

// KeyManager owns the salt and the password verifier in the secret store.
//
// Unlock returns the master key for password. The first successful call on
// a fresh vault creates the salt and stores the verifier, so the first
// password entered becomes the vault password. Later calls fail with
// common.ErrInvalidPassword when the verifier does not match.
type KeyManager interface {
	Unlock(ctx context.Context, password []byte) ([]byte, error)
}

type keyManager struct {
	secrets    metadata.Repository
	iterations int
}

// NewKeyManager constructs a KeyManager deriving keys with the given PBKDF2
// iteration count.
func NewKeyManager(secrets metadata.Repository, iterations int) KeyManager {
	return &keyManager{secrets: secrets, iterations: iterations}
}

func (k *keyManager) Unlock(ctx context.Context, password []byte) ([]byte, error) {
	if strings.TrimSpace(string(password)) == "" {
		return nil, common.ErrEmptyPassword
	}

	salt, err := k.secrets.Get(ctx, common.SecretKeySalt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	if len(salt) == 0 {
		salt = common.GenerateRandByteArray(common.SaltSize)
		if err := k.secrets.Set(ctx, common.SecretKeySalt, salt); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
		}
	}

	key, err := cryptox.DeriveKey(password, salt, k.iterations)
	if err != nil {
		return nil, err
	}
	candidate := cryptox.MakeVerifier(key)

	saved, err := k.secrets.Get(ctx, common.SecretKeyVerifier)
	if err != nil {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	if len(saved) == 0 {
		if err := k.secrets.Set(ctx, common.SecretKeyVerifier, candidate); err != nil {
			common.WipeByteArray(key)
			return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
		}
		return key, nil
	}

	if subtle.ConstantTimeCompare(saved, candidate) == 0 {
		common.WipeByteArray(key)
		return nil, common.ErrInvalidPassword
	}
	return key, nil
}
