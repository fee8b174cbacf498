package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/cryptox"
	"github.com/stretchr/testify/require"
)

// memSecrets is an in-memory metadata.Repository.
type memSecrets struct {
	m      map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemSecrets() *memSecrets { return &memSecrets{m: map[string][]byte{}} }

func (s *memSecrets) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.m[key], nil
}

func (s *memSecrets) Set(_ context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func TestKeyManager_BootstrapThenVerify(t *testing.T) {
	ctx := context.Background()
	secrets := newMemSecrets()
	km := NewKeyManager(secrets, 1000)

	k1, err := km.Unlock(ctx, []byte("abc"))
	require.NoError(t, err)
	require.Len(t, k1, cryptox.KeySize)
	require.Len(t, secrets.m[common.SecretKeySalt], common.SaltSize)
	require.Equal(t, cryptox.MakeVerifier(k1), secrets.m[common.SecretKeyVerifier])
	require.Equal(t, 2, secrets.sets)

	k2, err := km.Unlock(ctx, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := km.Unlock(ctx, []byte("xyz"))
	require.ErrorIs(t, err, common.ErrInvalidPassword)
	require.Nil(t, k3)

	require.Equal(t, 2, secrets.sets, "verification must not write")
}

func TestKeyManager_SaltPersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	secrets := newMemSecrets()

	k1, err := NewKeyManager(secrets, 1000).Unlock(ctx, []byte("abc"))
	require.NoError(t, err)
	k2, err := NewKeyManager(secrets, 1000).Unlock(ctx, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestKeyManager_BlankPassword(t *testing.T) {
	secrets := newMemSecrets()
	km := NewKeyManager(secrets, 1000)

	for _, pw := range [][]byte{nil, []byte(""), []byte("   ")} {
		_, err := km.Unlock(context.Background(), pw)
		require.ErrorIs(t, err, common.ErrEmptyPassword)
	}
	require.Empty(t, secrets.m)
}

func TestKeyManager_StorageErrors(t *testing.T) {
	ctx := context.Background()

	secrets := newMemSecrets()
	secrets.getErr = errors.New("disk gone")
	_, err := NewKeyManager(secrets, 1000).Unlock(ctx, []byte("abc"))
	require.ErrorIs(t, err, common.ErrStorage)

	secrets = newMemSecrets()
	secrets.setErr = errors.New("read-only")
	_, err = NewKeyManager(secrets, 1000).Unlock(ctx, []byte("abc"))
	require.ErrorIs(t, err, common.ErrStorage)
	require.ErrorContains(t, err, "read-only")
}
