package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
)

type stubObjects struct{ closed bool }

func (s *stubObjects) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, gcp.ErrObjectNotFound
}
func (s *stubObjects) Size(context.Context, string, string) (int64, error) { return 0, nil }
func (s *stubObjects) Close() error                                        { s.closed = true; return nil }

func stubObjectReader(t *testing.T, fn func(context.Context, *logger.Logger, gcp.StorageConfig) (gcp.ObjectReader, error)) {
	t.Helper()
	orig := newObjectReader
	t.Cleanup(func() { newObjectReader = orig })
	newObjectReader = fn
}

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.StorageConfigError{Code: gcp.StorageConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing host", &gcp.StorageConfigError{Code: gcp.StorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid host", &gcp.StorageConfigError{Code: gcp.StorageConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.StorageConfig{Mode: gcp.StorageModeGCS}, tc.err)
			assert.Equal(t, tc.want, storageProviderBootstrapErrorCode(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestResolveMediaStoreLocalOnly(t *testing.T) {
	stubObjectReader(t, func(context.Context, *logger.Logger, gcp.StorageConfig) (gcp.ObjectReader, error) {
		t.Fatal("object reader must not be built when storage is off")
		return nil, nil
	})
	resolver, objects, err := resolveMediaStore(t.Context(), logger.Nop(), Config{Media: media.Config{Root: t.TempDir()}})
	require.NoError(t, err)
	assert.NotNil(t, resolver)
	assert.Nil(t, objects)
}

func TestResolveMediaStoreEmulator(t *testing.T) {
	var captured gcp.StorageConfig
	stub := &stubObjects{}
	stubObjectReader(t, func(_ context.Context, _ *logger.Logger, cfg gcp.StorageConfig) (gcp.ObjectReader, error) {
		captured = cfg
		return stub, nil
	})
	cfg := Config{
		Media:   media.Config{Root: t.TempDir()},
		Storage: gcp.StorageConfig{Mode: gcp.StorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
	}
	resolver, objects, err := resolveMediaStore(t.Context(), logger.Nop(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, resolver)
	assert.Same(t, stub, objects)
	assert.Equal(t, "http://fake-gcs:4443", captured.EmulatorHost)
}

func TestResolveMediaStoreInvalidEmulatorHost(t *testing.T) {
	cfg := Config{
		Media:   media.Config{Root: t.TempDir()},
		Storage: gcp.StorageConfig{Mode: gcp.StorageModeGCSEmulator, EmulatorHost: "not-a-url"},
	}
	_, _, err := resolveMediaStore(t.Context(), logger.Nop(), cfg)
	require.Error(t, err)
	var got *StorageProviderBootstrapError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, StorageProviderBootstrapErrorInvalidEmulatorHost, got.Code)
}
