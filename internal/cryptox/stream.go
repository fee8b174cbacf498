package cryptox

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dripvault/internal/common"
)

// ChunkSize is the plaintext size of every sealed chunk except the last one.
const ChunkSize = 64 * 1024

// EncryptStream reads plaintext from src and writes the sealed stream to dst.
//
// The stream is a sequence of AES-256-GCM chunks. Every chunk carries its own
// 128-bit tag and is sealed under a nonce derived from a fresh random base
// nonce, the chunk counter and a final-chunk flag, so truncation, reordering
// and appended data are all detected by DecryptStream. Memory use is bounded
// by one chunk regardless of the input size.
//
// It returns the base nonce (to be stored next to the blob) and the number of
// plaintext bytes consumed.
func EncryptStream(dst io.Writer, src io.Reader, key []byte) (nonce []byte, n int64, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, 0, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)
	chunkNonceBuf := make([]byte, NonceSize)

	br := bufio.NewReaderSize(src, ChunkSize)
	buf := make([]byte, ChunkSize)
	out := make([]byte, 0, ChunkSize+TagSize)

	for counter := uint64(0); ; counter++ {
		m, last, err := readChunk(br, buf)
		if err != nil {
			return nil, n, fmt.Errorf("read plaintext: %w", err)
		}

		out = aead.Seal(out[:0], chunkNonce(chunkNonceBuf, nonce, counter, last), buf[:m], nil)
		if _, err := dst.Write(out); err != nil {
			return nil, n, fmt.Errorf("write ciphertext: %w", err)
		}
		n += int64(m)

		if last {
			return nonce, n, nil
		}
	}
}

// DecryptStream reads a stream produced by EncryptStream from src and writes
// the plaintext to dst. Any tag mismatch, truncation or trailing data fails
// with common.ErrAuthFailed.
//
// Chunks are written to dst as soon as they authenticate, so a failure can
// leave a plaintext prefix in dst. Callers writing to durable storage must
// discard dst on error.
func DecryptStream(dst io.Writer, src io.Reader, key, nonce []byte) (int64, error) {
	if len(nonce) != NonceSize {
		return 0, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrAuthFailed, NonceSize, len(nonce))
	}

	aead, err := newGCM(key)
	if err != nil {
		return 0, err
	}

	chunkNonceBuf := make([]byte, NonceSize)
	br := bufio.NewReaderSize(src, ChunkSize+TagSize)
	buf := make([]byte, ChunkSize+TagSize)
	plain := make([]byte, 0, ChunkSize)

	var n int64
	for counter := uint64(0); ; counter++ {
		m, last, err := readChunk(br, buf)
		if err != nil {
			return n, fmt.Errorf("read ciphertext: %w", err)
		}
		if m < TagSize {
			return n, fmt.Errorf("%w: truncated chunk %d", common.ErrAuthFailed, counter)
		}

		plain, err = aead.Open(plain[:0], chunkNonce(chunkNonceBuf, nonce, counter, last), buf[:m], nil)
		if err != nil {
			return n, fmt.Errorf("%w: chunk %d", common.ErrAuthFailed, counter)
		}
		if _, err := dst.Write(plain); err != nil {
			return n, fmt.Errorf("write plaintext: %w", err)
		}
		n += int64(len(plain))

		if last {
			return n, nil
		}
	}
}

// readChunk fills buf from r. last reports that r has no data beyond the
// bytes returned.
func readChunk(r *bufio.Reader, buf []byte) (n int, last bool, err error) {
	n, err = io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	case err != nil:
		return n, false, err
	}

	if _, err := r.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return n, true, nil
		}
		return n, false, err
	}
	return n, false, nil
}

// chunkNonce writes into dst the nonce for chunk counter: base XOR the
// big-endian counter in bytes 3..10, with the low bit of byte 11 flipped for
// the final chunk.
func chunkNonce(dst, base []byte, counter uint64, last bool) []byte {
	copy(dst, base)

	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], counter)
	for i := range ctr {
		dst[3+i] ^= ctr[i]
	}
	if last {
		dst[NonceSize-1] ^= 0x01
	}
	return dst
}
