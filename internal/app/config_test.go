package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		configFileEnv, "PORT", "LOG_MODE", "PUBLIC_BASE_URL", "FRONTEND_BASE_URL",
		"META_APP_ID", "META_APP_SECRET", "META_API_VERSION", "META_GRAPH_BASE_URL",
		"ADS_OAUTH_STATE_TTL", "ADS_SESSION_CACHE_TTL", "ADS_REQUEST_TIMEOUT", "ADS_MAX_RETRIES", "ADS_BACKOFF_FACTOR",
		"ADS_FACEBOOK_DAILY_LIMIT", "ADS_INSTAGRAM_DAILY_LIMIT",
		"REDIS_ADDR", "DB_DRIVER", "SQLITE_PATH", "MEDIA_ROOT", "MEDIA_MAX_BYTES",
		"MEDIA_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "CRON_ENABLED", "CRON_LAUNCH_SCHEDULED",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "v21.0", cfg.Meta.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Meta.Timeout)
	assert.Equal(t, 3, cfg.Meta.MaxAttempts)
	assert.Equal(t, 300*time.Millisecond, cfg.Meta.Backoff)
	assert.Equal(t, 5*time.Minute, cfg.Ads.StateTTL)
	assert.Equal(t, 10*time.Minute, cfg.Ads.SessionTTL)
	assert.Equal(t, 25, cfg.Ads.FacebookDailyLimit)
	assert.False(t, cfg.Storage.Enabled())
	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, "* * * * *", cfg.Cron.Schedules.LaunchScheduled)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "ads.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
public_base_url: https://api.example.com
meta:
  app_id: file-app
  api_version: v20.0
ads:
  oauth_state_ttl: 2m
  instagram_daily_limit: 5
storage:
  mode: gcs_emulator
  emulator_host: http://fake-gcs:4443
cron:
  enabled: false
  schedules:
    launch_scheduled: "*/5 * * * *"
`), 0o600))
	t.Setenv(configFileEnv, path)
	t.Setenv("META_APP_ID", "env-app")
	t.Setenv("ADS_SESSION_CACHE_TTL", "120")
	t.Setenv("ADS_BACKOFF_FACTOR", "0.5")
	t.Setenv("ADS_FACEBOOK_DAILY_LIMIT", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "env-app", cfg.Meta.AppID)
	assert.Equal(t, "v20.0", cfg.Meta.APIVersion)
	assert.Equal(t, 2*time.Minute, cfg.Ads.StateTTL)
	assert.Equal(t, 2*time.Minute, cfg.Ads.SessionTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Meta.Backoff)
	assert.Equal(t, gcp.StorageModeGCSEmulator, cfg.Storage.Mode)
	assert.False(t, cfg.Cron.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Cron.Schedules.LaunchScheduled)
	assert.Equal(t, "@hourly", cfg.Cron.Schedules.RefreshTokens)

	s := cfg.settings()
	assert.Equal(t, 3, s.DailyLimits[types.PlatformFacebook])
	assert.Equal(t, 5, s.DailyLimits[types.PlatformInstagram])
	assert.Equal(t, "https://api.example.com", s.PublicBaseURL)
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
	t.Setenv(configFileEnv, path)

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigValidates(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ADS_INSTAGRAM_DAILY_LIMIT", "-1")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily launch limits")
}
