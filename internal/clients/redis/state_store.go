package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Prefix namespaces every key, e.g. "ads:".
	Prefix string `yaml:"prefix"`
}

// StateStore is a statestore.Store backed by Redis key expiry.
type StateStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

var _ statestore.Store = (*StateStore)(nil)

func NewStateStore(log *logger.Logger, cfg Config) (*StateStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &StateStore{
		log:    log.With("service", "RedisStateStore"),
		rdb:    rdb,
		prefix: cfg.Prefix,
	}, nil
}

func (s *StateStore) key(k string) string { return s.prefix + k }

func (s *StateStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, statestore.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Take uses GETDEL so two concurrent consumers cannot both read the value.
func (s *StateStore) Take(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.GetDel(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, statestore.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel: %w", err)
	}
	return raw, nil
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *StateStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
