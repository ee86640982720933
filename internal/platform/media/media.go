// Package media resolves creative media references to readable content.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
)

const DefaultMaxBytes int64 = 30 << 20

var (
	ErrTooLarge   = errors.New("media exceeds maximum size")
	ErrInvalidRef = errors.New("invalid media reference")
	ErrNotFound   = errors.New("media not found")
)

// Object is an opened media file. Callers must close Body.
type Object struct {
	Name string
	Size int64
	Body io.ReadCloser
}

type Store interface {
	Open(ctx context.Context, ref string) (*Object, error)
}

type Config struct {
	Root     string `yaml:"root"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// Resolver serves gs://bucket/key references from object storage and every
// other reference from the local media root.
type Resolver struct {
	root     string
	maxBytes int64
	objects  gcp.ObjectReader
}

// NewResolver builds a Resolver. objects may be nil, in which case gs://
// references are rejected.
func NewResolver(cfg Config, objects gcp.ObjectReader) (*Resolver, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Resolver{root: abs, maxBytes: maxBytes, objects: objects}, nil
}

func (r *Resolver) Open(ctx context.Context, ref string) (*Object, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	if strings.HasPrefix(ref, "gs://") {
		return r.openObject(ctx, ref)
	}
	return r.openLocal(ref)
}

// ParseGSURL splits gs://bucket/key.
func ParseGSURL(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || strings.Trim(key, "/") == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return bucket, key, nil
}

func (r *Resolver) openObject(ctx context.Context, ref string) (*Object, error) {
	if r.objects == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrInvalidRef)
	}
	bucket, key, err := ParseGSURL(ref)
	if err != nil {
		return nil, err
	}
	size, err := r.objects.Size(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	if size > r.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, r.maxBytes)
	}
	rc, err := r.objects.Open(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	return &Object{Name: filepath.Base(key), Size: size, Body: limitReadCloser(rc, r.maxBytes)}, nil
}

// localPath maps ref into the media root, refusing anything that escapes it.
func (r *Resolver) localPath(ref string) (string, error) {
	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside the media root", ErrInvalidRef, ref)
	}
	return p, nil
}

func (r *Resolver) openLocal(ref string) (*Object, error) {
	p, err := r.localPath(ref)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", ErrInvalidRef, ref)
	}
	if fi.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, fi.Size(), r.maxBytes)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	return &Object{Name: filepath.Base(p), Size: fi.Size(), Body: limitReadCloser(f, r.maxBytes)}, nil
}

// limitReadCloser fails reads past max, guarding against objects that grow
// between the size check and the read.
func limitReadCloser(rc io.ReadCloser, max int64) io.ReadCloser {
	return &limitedReadCloser{rc: rc, remaining: max}
}

type limitedReadCloser struct {
	rc        io.ReadCloser
	remaining int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.rc.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

func (l *limitedReadCloser) Close() error { return l.rc.Close() }
