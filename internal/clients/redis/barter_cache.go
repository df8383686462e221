package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/gardenbarter-backend/internal/platform/envutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

// BarterCache is a read-through cache for listing reads. Entries are keyed
// under a generation number; Invalidate bumps the generation so every
// previously cached read becomes unreachable at once.
type BarterCache interface {
	Get(ctx context.Context, scope string, dst interface{}) (bool, error)
	Set(ctx context.Context, scope string, v interface{}) error
	Invalidate(ctx context.Context) error
	Close() error
}

type barterCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewBarterCache connects to REDIS_ADDR. Callers only build it when the
// address is configured.
func NewBarterCache(log *logger.Logger) (BarterCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "", log)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", "", log),
		DB:          envutil.Int("REDIS_DB", 0, log),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := strings.TrimSuffix(envutil.String("REDIS_KEY_PREFIX", "gardenbarter", log), ":")
	return &barterCache{
		log:    log.With("client", "RedisBarterCache"),
		rdb:    rdb,
		prefix: prefix + ":barter",
		ttl:    envutil.Seconds("BARTER_CACHE_TTL", 60*time.Second, log),
	}, nil
}

func (c *barterCache) versionKey() string { return c.prefix + ":version" }

func (c *barterCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *barterCache) key(ctx context.Context, scope string) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", c.prefix, v, scope), nil
}

func (c *barterCache) Get(ctx context.Context, scope string, dst interface{}) (bool, error) {
	k, err := c.key(ctx, scope)
	if err != nil {
		return false, err
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("Dropping undecodable cache entry", "key", k, "error", err)
		_ = c.rdb.Del(ctx, k).Err()
		return false, nil
	}
	return true, nil
}

func (c *barterCache) Set(ctx context.Context, scope string, v interface{}) error {
	k, err := c.key(ctx, scope)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, raw, c.ttl).Err()
}

func (c *barterCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.versionKey()).Err()
}

func (c *barterCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
