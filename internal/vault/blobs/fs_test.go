package blobs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	n, err := s.Put(ctx, "a.enc", bytes.NewReader([]byte("sealed")))
	require.NoError(t, err)
	require.Equal(t, int64(6), n)

	rc, err := s.Open(ctx, "a.enc")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, []byte("sealed"), data)

	_, err = s.Put(ctx, "a.enc", bytes.NewReader([]byte("replaced")))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(s.Dir(), "a.enc"))
	require.NoError(t, err)
	require.Equal(t, []byte("replaced"), got)

	require.NoError(t, s.Delete(ctx, "a.enc"))
	_, err = s.Open(ctx, "a.enc")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Delete(ctx, "a.enc"))
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", ".", "..", "../x", "a/b", `a\b`} {
		_, err := s.Put(ctx, ref, bytes.NewReader(nil))
		require.Error(t, err, ref)
		_, err = s.Open(ctx, ref)
		require.Error(t, err, ref)
		require.Error(t, s.Delete(ctx, ref), ref)
	}
}

func TestFSStore_PutCanceled(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Put(ctx, "a", bytes.NewReader([]byte("x")))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Empty(t, entries)
}
