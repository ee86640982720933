package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/clients/redis"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/db"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/jobs"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/observability"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/envutil"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/meta"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

const configFileEnv = "ADS_CONFIG_FILE"

type AdsConfig struct {
	StateTTL            time.Duration `yaml:"oauth_state_ttl"`
	SessionTTL          time.Duration `yaml:"session_cache_ttl"`
	FacebookDailyLimit  int           `yaml:"facebook_daily_limit"`
	InstagramDailyLimit int           `yaml:"instagram_daily_limit"`
}

type CronConfig struct {
	Enabled   bool           `yaml:"enabled"`
	Schedules jobs.Schedules `yaml:"schedules"`
}

type LogConfig struct {
	Mode      string `yaml:"mode"`
	Redaction bool   `yaml:"redaction"`
	HashSalt  string `yaml:"hash_salt"`
}

type Config struct {
	Port            string    `yaml:"port"`
	Log             LogConfig `yaml:"log"`
	PublicBaseURL   string    `yaml:"public_base_url"`
	FrontendBaseURL string    `yaml:"frontend_base_url"`
	AllowedOrigins  []string  `yaml:"allowed_origins"`

	JWTSecretKey       string `yaml:"jwt_secret_key"`
	TokenEncryptionKey string `yaml:"token_encryption_key"`

	Meta     meta.Config              `yaml:"meta"`
	Ads      AdsConfig                `yaml:"ads"`
	Database db.Config                `yaml:"database"`
	Redis    redis.Config             `yaml:"redis"`
	Media    media.Config             `yaml:"media"`
	Storage  gcp.StorageConfig        `yaml:"storage"`
	Cron     CronConfig               `yaml:"cron"`
	Otel     observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		Log:             LogConfig{Mode: "development", Redaction: true},
		PublicBaseURL:   "http://localhost:8080",
		FrontendBaseURL: "http://localhost:5173",
		Meta: meta.Config{
			APIVersion:  meta.DefaultAPIVersion,
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
			Backoff:     300 * time.Millisecond,
		},
		Ads: AdsConfig{
			StateTTL:            services.DefaultStateTTL,
			SessionTTL:          services.DefaultSessionTTL,
			FacebookDailyLimit:  services.DefaultDailyLimit,
			InstagramDailyLimit: services.DefaultDailyLimit,
		},
		Database: db.Config{Driver: db.DriverPostgres},
		Redis:    redis.Config{Prefix: "ads:"},
		Media:    media.Config{Root: ".", MaxBytes: media.DefaultMaxBytes},
		Cron:     CronConfig{Enabled: true, Schedules: jobs.DefaultSchedules()},
		Otel:     observability.OtelConfig{ServiceName: observability.DefaultServiceName},
	}
}

// LoadConfig layers defaults, the YAML file named by ADS_CONFIG_FILE (if
// any), then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String(configFileEnv, ""); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.Log.Mode = envutil.String("LOG_MODE", cfg.Log.Mode)
	cfg.Log.Redaction = envutil.Bool("LOG_REDACTION_ENABLED", cfg.Log.Redaction)
	cfg.Log.HashSalt = envutil.String("LOG_HASH_SALT", cfg.Log.HashSalt)
	cfg.PublicBaseURL = envutil.String("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.FrontendBaseURL = envutil.String("FRONTEND_BASE_URL", cfg.FrontendBaseURL)
	cfg.AllowedOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.TokenEncryptionKey = envutil.String("TOKEN_ENCRYPTION_KEY", cfg.TokenEncryptionKey)

	cfg.Meta.AppID = envutil.String("META_APP_ID", cfg.Meta.AppID)
	cfg.Meta.AppSecret = envutil.String("META_APP_SECRET", cfg.Meta.AppSecret)
	cfg.Meta.APIVersion = envutil.String("META_API_VERSION", cfg.Meta.APIVersion)
	cfg.Meta.GraphBaseURL = envutil.String("META_GRAPH_BASE_URL", cfg.Meta.GraphBaseURL)
	cfg.Meta.Timeout = envutil.Seconds("ADS_REQUEST_TIMEOUT", cfg.Meta.Timeout)
	cfg.Meta.MaxAttempts = envutil.Int("ADS_MAX_RETRIES", cfg.Meta.MaxAttempts)
	if f := envutil.Float("ADS_BACKOFF_FACTOR", 0); f > 0 {
		cfg.Meta.Backoff = time.Duration(f * float64(time.Second))
	}

	cfg.Ads.StateTTL = envutil.Seconds("ADS_OAUTH_STATE_TTL", cfg.Ads.StateTTL)
	cfg.Ads.SessionTTL = envutil.Seconds("ADS_SESSION_CACHE_TTL", cfg.Ads.SessionTTL)
	cfg.Ads.FacebookDailyLimit = envutil.Int("ADS_FACEBOOK_DAILY_LIMIT", cfg.Ads.FacebookDailyLimit)
	cfg.Ads.InstagramDailyLimit = envutil.Int("ADS_INSTAGRAM_DAILY_LIMIT", cfg.Ads.InstagramDailyLimit)

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.SQLitePath = envutil.String("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Database.Postgres.Host)
	cfg.Database.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Database.Postgres.Port)
	cfg.Database.Postgres.User = envutil.String("POSTGRES_USER", cfg.Database.Postgres.User)
	cfg.Database.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Database.Postgres.Password)
	cfg.Database.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Database.Postgres.Name)
	cfg.Database.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Database.Postgres.SSLMode)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.Media.Root = envutil.String("MEDIA_ROOT", cfg.Media.Root)
	cfg.Media.MaxBytes = envutil.Int64("MEDIA_MAX_BYTES", cfg.Media.MaxBytes)
	cfg.Storage = gcp.StorageConfigFromEnv(cfg.Storage)

	cfg.Cron.Enabled = envutil.Bool("CRON_ENABLED", cfg.Cron.Enabled)
	cfg.Cron.Schedules.RefreshTokens = envutil.String("CRON_REFRESH_TOKENS", cfg.Cron.Schedules.RefreshTokens)
	cfg.Cron.Schedules.FetchAnalytics = envutil.String("CRON_FETCH_ANALYTICS", cfg.Cron.Schedules.FetchAnalytics)
	cfg.Cron.Schedules.LaunchScheduled = envutil.String("CRON_LAUNCH_SCHEDULED", cfg.Cron.Schedules.LaunchScheduled)
	cfg.Cron.Schedules.PruneCounters = envutil.String("CRON_PRUNE_COUNTERS", cfg.Cron.Schedules.PruneCounters)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", cfg.Otel.Environment)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
	if h := observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")); h != nil {
		cfg.Otel.Headers = h
	}
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if strings.TrimSpace(c.PublicBaseURL) == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required for the OAuth redirect"))
	}
	if c.Ads.FacebookDailyLimit <= 0 || c.Ads.InstagramDailyLimit <= 0 {
		errs = append(errs, errors.New("daily launch limits must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) settings() services.Settings {
	return services.Settings{
		PublicBaseURL:   c.PublicBaseURL,
		FrontendBaseURL: c.FrontendBaseURL,
		StateTTL:        c.Ads.StateTTL,
		SessionTTL:      c.Ads.SessionTTL,
		DailyLimits: map[types.Platform]int{
			types.PlatformFacebook:  c.Ads.FacebookDailyLimit,
			types.PlatformInstagram: c.Ads.InstagramDailyLimit,
		},
	}
}
