// Package sources describes items offered for import: a name, a MIME type,
// a size and a way to stream the content.
package sources

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Source is one item to import.
type Source interface {
	Name() string
	MimeType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// File is a Source backed by a local file.
type File struct {
	path string
	name string
	mime string
	size int64
}

// FromPath stats path and detects its MIME type, first by extension and
// then by sniffing the leading bytes.
func FromPath(path string) (*File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := detectMime(path)
	if err != nil {
		return nil, err
	}

	return &File{path: path, name: filepath.Base(path), mime: mt, size: fi.Size()}, nil
}

// Expand turns paths into sources. Directories contribute their regular
// files (non-recursive, hidden files skipped). Paths that cannot be read are
// returned in failed.
func Expand(paths []string) (out []Source, failed map[string]error) {
	failed = map[string]error{}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			failed[p] = err
			continue
		}
		if !fi.IsDir() {
			if f, err := FromPath(p); err != nil {
				failed[p] = err
			} else {
				out = append(out, f)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			failed[p] = err
			continue
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			full := filepath.Join(p, e.Name())
			if f, err := FromPath(full); err != nil {
				failed[full] = err
			} else {
				out = append(out, f)
			}
		}
	}
	return out, failed
}

func (f *File) Name() string     { return f.name }
func (f *File) MimeType() string { return f.mime }
func (f *File) Size() int64      { return f.size }
func (f *File) Path() string     { return f.path }

func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

func detectMime(path string) (string, error) {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mt != "" {
		return mt, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(fh, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// Memory is an in-memory Source.
type Memory struct {
	name string
	mime string
	data []byte
}

func NewMemory(name, mimeType string, data []byte) *Memory {
	return &Memory{name: name, mime: mimeType, data: data}
}

func (m *Memory) Name() string     { return m.name }
func (m *Memory) MimeType() string { return m.mime }
func (m *Memory) Size() int64      { return int64(len(m.data)) }

func (m *Memory) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}
