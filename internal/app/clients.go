package app

import (
	"fmt"

	"github.com/yungbote/gardenbarter-backend/internal/clients/redis"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type Clients struct {
	BarterCache redis.BarterCache
}

// wireClients connects the optional external clients. Without REDIS_ADDR
// listings are read straight from the database.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	if cfg.RedisAddr != "" {
		cache, err := redis.NewBarterCache(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis barter cache: %w", err)
		}
		out.BarterCache = cache
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.BarterCache != nil {
		_ = c.BarterCache.Close()
	}
}
