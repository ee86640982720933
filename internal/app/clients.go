package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/clients/redis"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/db"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/gcp"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/meta"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

type Clients struct {
	DB        *db.Service
	State     statestore.Store
	Redis     *redis.StateStore
	Meta      *meta.Client
	Providers *adprovider.Registry
	Media     *media.Resolver
	Objects   gcp.ObjectReader
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Database
	dbs, err := db.Open(log, cfg.Database)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}
	c.DB = dbs

	// OAuth state and sessions
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rs, err := redis.NewStateStore(log, cfg.Redis)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init redis state store: %w", err)
		}
		c.Redis = rs
		c.State = rs
	} else {
		log.Warn("REDIS_ADDR not set; OAuth state is kept in process memory")
		c.State = statestore.NewMemory()
	}

	// Graph API, one client for both platforms
	mc, err := meta.NewClient(log, cfg.Meta)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init meta client: %w", err)
	}
	if !mc.Configured() {
		log.Warn("META_APP_ID/META_APP_SECRET not set; OAuth initiate will be rejected")
	}
	c.Meta = mc
	c.Providers = adprovider.NewRegistry()
	c.Providers.Register(types.PlatformFacebook, mc)
	c.Providers.Register(types.PlatformInstagram, mc)

	// Creative media
	resolver, objects, err := resolveMediaStore(ctx, log, cfg)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Media = resolver
	c.Objects = objects

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Objects != nil {
		_ = c.Objects.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
