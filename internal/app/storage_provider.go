package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
)

var newObjectReader = gcp.NewObjectReader

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
	StorageProviderBootstrapErrorMediaRoot           StorageProviderBootstrapErrorCode = "media_root"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "media storage bootstrap failed"
	}
	return fmt.Sprintf(
		"media storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMediaStore builds the resolver creatives read their media through.
// The object reader is only created when object storage is configured; the
// returned reader must be closed by the caller.
func resolveMediaStore(ctx context.Context, log *logger.Logger, cfg Config) (*media.Resolver, gcp.ObjectReader, error) {
	storageCfg := cfg.Storage

	var objects gcp.ObjectReader
	if storageCfg.Enabled() {
		log.Info("Selecting object storage provider", "mode", storageCfg.Mode, "emulator_host", storageCfg.EmulatorHost)
		r, err := newObjectReader(ctx, log, storageCfg)
		if err != nil {
			classified := classifyStorageProviderBootstrapError(storageCfg, err)
			log.Error(
				"Object storage provider bootstrap failed",
				"mode", storageCfg.Mode,
				"emulator_host", storageCfg.EmulatorHost,
				"error_code", storageProviderBootstrapErrorCode(classified),
				"error", classified,
			)
			return nil, nil, classified
		}
		objects = r
	} else {
		log.Info("Object storage disabled; media refs resolve under the local root", "root", cfg.Media.Root)
	}

	resolver, err := media.NewResolver(cfg.Media, objects)
	if err != nil {
		if objects != nil {
			_ = objects.Close()
		}
		return nil, nil, &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorMediaRoot,
			Mode:  string(storageCfg.Mode),
			Cause: err,
		}
	}
	return resolver, objects, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.StorageConfig, err error) error {
	out := &StorageProviderBootstrapError{
		Code:         StorageProviderBootstrapErrorConnectFailed,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
	var cfgErr *gcp.StorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.StorageConfigErrorInvalidMode:
			out.Code = StorageProviderBootstrapErrorInvalidMode
		case gcp.StorageConfigErrorMissingEmulatorHost:
			out.Code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.StorageConfigErrorInvalidEmulatorHost:
			out.Code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return out
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
