package cache

import (
	"context"

	"go.uber.org/fx"

	"github.com/finovel/loanledger/internal/config"
)

// Module exposes the result cache implementation to the fx graph. A shared
// redis instance is used when configured, otherwise an in-process TTL map.
var Module = fx.Provide(newCache)

type cacheParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
}

func newCache(p cacheParams) (Cache, error) {
	if p.Config.RedisAddr == "" {
		memory := NewMemory(0)
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				memory.Close()
				return nil
			},
		})
		return memory, nil
	}

	rds, err := NewRedis(p.Ctx, p.Config.RedisAddr)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rds.Close()
		},
	})
	return rds, nil
}
