package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

// ErrObjectNotFound is returned when the bucket has no such object.
var ErrObjectNotFound = errors.New("object not found")

// ObjectReader reads objects addressed by bucket and key.
type ObjectReader interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Size(ctx context.Context, bucket, key string) (int64, error)
	Close() error
}

type objectReader struct {
	log          *logger.Logger
	client       *storage.Client
	emulatorHost string
	httpClient   *http.Client
}

func NewObjectReader(ctx context.Context, log *logger.Logger, cfg StorageConfig) (ObjectReader, error) {
	if err := ValidateStorageConfig(cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, errors.New("object storage is disabled")
	}
	r := &objectReader{
		log:        log.With("service", "GCSObjectReader"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	if cfg.IsEmulator() {
		r.emulatorHost = strings.TrimRight(cfg.EmulatorHost, "/")
		r.log.Info("object storage initialized", "mode", cfg.Mode, "emulator_host", r.emulatorHost)
		return r, nil
	}

	opts := append(credentialOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadOnly))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	r.client = client
	r.log.Info("object storage initialized", "mode", cfg.Mode)
	return r, nil
}

// The reader's context must outlive this call, so cancel is tied to Close.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (r *objectReader) emulatorURL(bucket, key string, media bool) string {
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", r.emulatorHost, url.PathEscape(bucket), url.PathEscape(key))
	if media {
		u += "?alt=media"
	}
	return u
}

func (r *objectReader) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if r.emulatorHost != "" {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, r.emulatorURL(bucket, key, true), nil)
		if err != nil {
			cancel()
			return nil, err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("emulator download: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, key)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	rc, err := r.client.Bucket(bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: rc, cancel: cancel}, nil
}

func (r *objectReader) Size(ctx context.Context, bucket, key string) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if r.emulatorHost != "" {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, r.emulatorURL(bucket, key, false), nil)
		if err != nil {
			return 0, err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("emulator attrs: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return 0, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, key)
		}
		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("emulator attrs failed: status=%d", resp.StatusCode)
		}
		var payload struct {
			Size string `json:"size"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return 0, fmt.Errorf("decode emulator attrs: %w", err)
		}
		return strconv.ParseInt(strings.TrimSpace(payload.Size), 10, 64)
	}

	attrs, err := r.client.Bucket(bucket).Object(key).Attrs(ctx2)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, key)
		}
		return 0, fmt.Errorf("fetch GCS object attrs: %w", err)
	}
	return attrs.Size, nil
}

func (r *objectReader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
