package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/filex"
)

// FSStore keeps blobs as files in one private directory.
type FSStore struct {
	dir string
}

// NewFSStore creates dir if needed.
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FSStore{dir: abs}, nil
}

func (s *FSStore) Dir() string {
	return s.dir
}

func (s *FSStore) Put(ctx context.Context, ref string, r io.Reader) (int64, error) {
	if err := validateRef(ref); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return filex.WriteFileAtomic(filepath.Join(s.dir, ref), r)
}

func (s *FSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", ref, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FSStore) Delete(ctx context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	return filex.RemoveIfExists(filepath.Join(s.dir, ref))
}
