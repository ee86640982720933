package gcp

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageConfigFromEnvDefaultsToOff(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg := StorageConfigFromEnv(StorageConfig{})
	if cfg.Enabled() {
		t.Fatalf("mode: want off got=%q", cfg.Mode)
	}
	if err := ValidateStorageConfig(cfg); err != nil {
		t.Fatalf("ValidateStorageConfig: %v", err)
	}
}

func TestStorageConfigFromEnvOverridesBase(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_MODE", "GCS")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg := StorageConfigFromEnv(StorageConfig{Mode: StorageModeGCSEmulator})
	if cfg.Mode != StorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCS, cfg.Mode)
	}
}

func TestStorageConfigFromEnvEmulatorHostImpliesEmulator(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg := StorageConfigFromEnv(StorageConfig{})
	if !cfg.IsEmulator() {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCSEmulator, cfg.Mode)
	}
	if err := ValidateStorageConfig(cfg); err != nil {
		t.Fatalf("ValidateStorageConfig: %v", err)
	}
}

func TestValidateStorageConfigCodes(t *testing.T) {
	cases := []struct {
		cfg  StorageConfig
		code StorageConfigErrorCode
	}{
		{StorageConfig{Mode: "local"}, StorageConfigErrorInvalidMode},
		{StorageConfig{Mode: StorageModeGCSEmulator}, StorageConfigErrorMissingEmulatorHost},
		{StorageConfig{Mode: StorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443"}, StorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		err := ValidateStorageConfig(tc.cfg)
		var cfgErr *StorageConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%+v: expected StorageConfigError, got=%v", tc.cfg, err)
		}
		if cfgErr.Code != tc.code {
			t.Fatalf("%+v: code want=%q got=%q", tc.cfg, tc.code, cfgErr.Code)
		}
	}
}

func TestStorageConfigFromEnvCredentials(t *testing.T) {
	t.Setenv("MEDIA_STORAGE_MODE", "gcs")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/sa.json")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")

	cfg := StorageConfigFromEnv(StorageConfig{})
	if cfg.Credentials != "/etc/sa.json" {
		t.Fatalf("credentials: got=%q", cfg.Credentials)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)
	cfg = StorageConfigFromEnv(StorageConfig{})
	if !strings.HasPrefix(cfg.Credentials, "{") {
		t.Fatalf("inline json should win, got=%q", cfg.Credentials)
	}
}

func TestCredentialOptions(t *testing.T) {
	if got := credentialOptions("  "); got != nil {
		t.Fatalf("blank credentials: want nil got=%d options", len(got))
	}
	if got := credentialOptions(`{"type":"service_account"}`); len(got) != 1 {
		t.Fatalf("inline json: want 1 option got=%d", len(got))
	}
	if got := credentialOptions("/etc/sa.json"); len(got) != 1 {
		t.Fatalf("file path: want 1 option got=%d", len(got))
	}
}
