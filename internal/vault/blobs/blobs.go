// Package blobs stores encrypted media blobs. Blobs are addressed by an
// opaque ref chosen by the caller; the content is already ciphertext, so
// backends never see plaintext.
package blobs

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store is blob storage for sealed media and thumbnails.
type Store interface {
	// Put writes the content of r under ref, replacing any previous blob.
	Put(ctx context.Context, ref string, r io.Reader) (int64, error)

	// Open returns a reader for the blob or common.ErrorNotFound.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, ref string) error
}

func validateRef(ref string) error {
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return fmt.Errorf("invalid blob ref %q", ref)
	}
	return nil
}
