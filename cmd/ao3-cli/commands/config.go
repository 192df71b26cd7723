package commands

import (
	"context"
	"fmt"
	"time"

	"ao3scraper/internal/components/telemetry"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

type CacheConfig struct {
	// Dir is a badger directory used as the page cache.
	Dir string `json:"dir"`
	// Redis is the address of a redis server used as the page cache, it takes
	// precedence over Dir.
	Redis      string `json:"redis"`
	TtlMinutes int    `json:"ttl_minutes"`
}

type Config struct {
	BaseUrl        string      `json:"base_url"`
	UserAgent      string      `json:"user_agent"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Cache          CacheConfig `json:"cache"`
}

// openSession creates the session described by cfg, release closes its page cache.
func openSession(ctx context.Context, cfg Config, tel telemetry.API) (session *ao3.Session, release func(), err error) {
	opts := ao3.DefaultSessionOptions()
	opts.Telemetry = tel
	if cfg.BaseUrl != "" {
		opts.BaseUrl = cfg.BaseUrl
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	if cfg.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.Cache.TtlMinutes > 0 {
		opts.CacheTTL = time.Duration(cfg.Cache.TtlMinutes) * time.Minute
	}

	release = func() {}
	switch {
	case cfg.Cache.Redis != "":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis})
		err = rdb.Ping(ctx).Err()
		if err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		opts.Cache = ao3.NewRedisStore(rdb)
		release = func() { rdb.Close() }
	case cfg.Cache.Dir != "":
		badgerOpts := badger.DefaultOptions(cfg.Cache.Dir)
		badgerOpts.Logger = nil
		db, err := badger.Open(badgerOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger: %w", err)
		}
		opts.Cache = ao3.NewBadgerStore(db)
		release = func() { db.Close() }
	}

	session, err = ao3.NewSession(opts)
	if err != nil {
		release()
		return nil, nil, err
	}
	return session, release, nil
}
