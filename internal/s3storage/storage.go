// Package s3storage reads attachment candidates from a scanner bucket. Office
// scanners drop PDFs into an S3-compatible bucket, and the CLI accepts
// s3://bucket/key references next to local paths.
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/intake"
)

// Scheme prefixes bucket references.
const Scheme = "s3://"

// ErrNotConfigured is returned when no scanner bucket endpoint is set.
var ErrNotConfigured = errors.New("scanner bucket is not configured")

// Storage wraps MinIO/S3 reads for scanned documents.
type Storage struct {
	client *minio.Client
}

// New creates a MinIO client from the S3 settings.
func New(cfg config.S3Config) (*Storage, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client}, nil
}

// IsRef reports whether arg names a bucket object rather than a local path.
func IsRef(arg string) bool {
	return strings.HasPrefix(arg, Scheme)
}

// ParseRef splits s3://bucket/key into its parts.
func ParseRef(ref string) (bucket, key string, err error) {
	if !IsRef(ref) {
		return "", "", fmt.Errorf("%q is not an %s reference", ref, Scheme)
	}
	rest := strings.TrimPrefix(ref, Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || strings.Trim(key, "/") == "" {
		return "", "", fmt.Errorf("%q must look like %sbucket/key", ref, Scheme)
	}
	return bucket, key, nil
}

// Candidate stats the object and returns a candidate whose bytes are fetched
// lazily when the session encodes the batch. The declared type comes from the
// object's stored content type.
func (s *Storage) Candidate(ctx context.Context, ref string) (intake.Candidate, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return intake.Candidate{}, err
	}
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return intake.Candidate{}, fmt.Errorf("stat %s: %w", ref, err)
	}
	return intake.Candidate{
		Name:     path.Base(key),
		MimeType: normalizeContentType(info.ContentType),
		Size:     info.Size,
		Source: intake.SourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
			obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
			if err != nil {
				return nil, fmt.Errorf("get %s: %w", ref, err)
			}
			return obj, nil
		}),
	}, nil
}

// normalizeContentType drops parameters and the generic binary type, which
// scanners use when they do not know better.
func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "application/octet-stream" || ct == "binary/octet-stream" {
		return ""
	}
	return ct
}
