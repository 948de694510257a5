package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/clinic-console/internal/config"
	"github.com/wolfman30/clinic-console/internal/console"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// View-store backends reported by /health.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, view state falls back to memory", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildViewStore picks the Redis store when a client is available and the
// in-memory store otherwise. The pinger is nil for the memory store.
func BuildViewStore(client *redis.Client, cfg *appconfig.Config) (viewstate.Store, string, console.Pinger) {
	if client == nil {
		return viewstate.NewMemoryStore(cfg.SessionTTL), BackendMemory, nil
	}
	ping := console.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	return viewstate.NewRedisStore(client, cfg.SessionTTL), BackendRedis, ping
}
