package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	// StorageModeOff disables object storage; gs:// media refs are rejected.
	StorageModeOff         StorageMode = ""
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// StorageConfig selects between real GCS and a fake-gcs style emulator.
type StorageConfig struct {
	Mode         StorageMode `yaml:"mode"`
	EmulatorHost string      `yaml:"emulator_host"`
	// Credentials is a service-account JSON document or a path to one. Empty
	// falls back to application default credentials.
	Credentials string `yaml:"credentials"`
}

func (cfg StorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeGCSEmulator }
func (cfg StorageConfig) Enabled() bool    { return cfg.Mode != StorageModeOff }

type StorageConfigErrorCode string

const (
	StorageConfigErrorInvalidMode         StorageConfigErrorCode = "invalid_mode"
	StorageConfigErrorMissingEmulatorHost StorageConfigErrorCode = "missing_emulator_host"
	StorageConfigErrorInvalidEmulatorHost StorageConfigErrorCode = "invalid_emulator_host"
)

type StorageConfigError struct {
	Code         StorageConfigErrorCode
	Mode         string
	EmulatorHost string
}

func (e *StorageConfigError) Error() string {
	switch e.Code {
	case StorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("MEDIA_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", e.Mode)
	case StorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return fmt.Sprintf("invalid MEDIA_STORAGE_MODE=%q (allowed: %q, %q)", e.Mode, StorageModeGCS, StorageModeGCSEmulator)
	}
}

// StorageConfigFromEnv reads MEDIA_STORAGE_MODE and STORAGE_EMULATOR_HOST
// over base. An emulator host alone implies emulator mode.
func StorageConfigFromEnv(base StorageConfig) StorageConfig {
	cfg := base
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MEDIA_STORAGE_MODE"))); v != "" {
		cfg.Mode = StorageMode(v)
	}
	if v := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")); v != "" {
		cfg.EmulatorHost = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); v != "" {
		cfg.Credentials = v
	} else if v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); v != "" {
		cfg.Credentials = v
	}
	if cfg.Mode == StorageModeOff && cfg.EmulatorHost != "" {
		cfg.Mode = StorageModeGCSEmulator
	}
	return cfg
}

func ValidateStorageConfig(cfg StorageConfig) error {
	switch cfg.Mode {
	case StorageModeOff, StorageModeGCS:
		return nil
	case StorageModeGCSEmulator:
	default:
		return &StorageConfigError{Code: StorageConfigErrorInvalidMode, Mode: string(cfg.Mode), EmulatorHost: cfg.EmulatorHost}
	}
	if cfg.EmulatorHost == "" {
		return &StorageConfigError{Code: StorageConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &StorageConfigError{Code: StorageConfigErrorInvalidEmulatorHost, Mode: string(cfg.Mode), EmulatorHost: cfg.EmulatorHost}
	}
	return nil
}
