package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func TestOpenLocal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ads/banner.png", []byte("PNGDATA"))

	r, err := NewResolver(Config{Root: root}, nil)
	require.NoError(t, err)

	obj, err := r.Open(t.Context(), "ads/banner.png")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
	assert.Equal(t, "banner.png", obj.Name)
	assert.Equal(t, int64(7), obj.Size)

	abs := filepath.Join(root, "ads/banner.png")
	obj, err = r.Open(t.Context(), abs)
	require.NoError(t, err)
	obj.Body.Close()
}

func TestOpenLocalRejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "media")
	writeFile(t, parent, "secret.txt", []byte("x"))
	require.NoError(t, os.MkdirAll(root, 0o755))

	r, err := NewResolver(Config{Root: root}, nil)
	require.NoError(t, err)

	for _, ref := range []string{"../secret.txt", "a/../../secret.txt", filepath.Join(parent, "secret.txt")} {
		_, err := r.Open(t.Context(), ref)
		assert.ErrorIs(t, err, ErrInvalidRef, ref)
	}
}

func TestOpenLocalSizeLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.png", bytes.Repeat([]byte("a"), 64))

	r, err := NewResolver(Config{Root: root, MaxBytes: 32}, nil)
	require.NoError(t, err)

	_, err = r.Open(t.Context(), "big.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = r.Open(t.Context(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeObjects struct {
	data map[string]string
}

func (f fakeObjects) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	v, ok := f.data[bucket+"/"+key]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func (f fakeObjects) Size(_ context.Context, bucket, key string) (int64, error) {
	v, ok := f.data[bucket+"/"+key]
	if !ok {
		return 0, gcp.ErrObjectNotFound
	}
	return int64(len(v)), nil
}

func (f fakeObjects) Close() error { return nil }

func TestOpenObjectStorage(t *testing.T) {
	objs := fakeObjects{data: map[string]string{"bkt/ads/hero.jpg": "JPEG", "bkt/huge.png": strings.Repeat("b", 100)}}
	r, err := NewResolver(Config{Root: t.TempDir(), MaxBytes: 50}, objs)
	require.NoError(t, err)

	obj, err := r.Open(t.Context(), "gs://bkt/ads/hero.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "JPEG", string(data))
	assert.Equal(t, "hero.jpg", obj.Name)

	_, err = r.Open(t.Context(), "gs://bkt/huge.png")
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = r.Open(t.Context(), "gs://bkt/none.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Open(t.Context(), "gs://bkt")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestLimitReadCloser(t *testing.T) {
	rc := limitReadCloser(io.NopCloser(strings.NewReader("abcdef")), 4)
	_, err := io.ReadAll(rc)
	assert.ErrorIs(t, err, ErrTooLarge)

	rc = limitReadCloser(io.NopCloser(strings.NewReader("abcd")), 4)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
}
