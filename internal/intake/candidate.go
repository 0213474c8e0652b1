// Package intake validates attachment candidates and turns the accepted ones
// into transport-ready payloads.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Source yields the bytes of a candidate. Open is called once per encode.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }

// Candidate is a file the user picked, before validation. MimeType is the
// declared type and may be empty.
type Candidate struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Source   Source `json:"-"`
}

// FileCandidate describes a local file. The MIME type is guessed from the
// extension the way a browser file picker does.
func FileCandidate(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}
	return Candidate{
		Name:     filepath.Base(path),
		MimeType: mime.TypeByExtension(filepath.Ext(path)),
		Size:     info.Size(),
		Source: SourceFunc(func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		}),
	}, nil
}

// BytesCandidate wraps data already in memory, such as a multipart part.
func BytesCandidate(name, mimeType string, data []byte) Candidate {
	return Candidate{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Source: SourceFunc(func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}),
	}
}
