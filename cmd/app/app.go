package main

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/api"
	"github.com/japb1998/contacts/internal/cache"
	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/database"
	"github.com/japb1998/contacts/internal/service"
)

// buildRouter wires store, cache and service into the router. The returned
// cleanup closes the store and cache connections.
func buildRouter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(context.Context) error, error) {
	store, closeStore, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := closeStore

	var opts []service.Option
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			_ = closeStore(ctx)
			return nil, nil, err
		}
		opts = append(opts, service.WithListCache(cache.NewRedis(client, cfg.RedisPrefix, cfg.ListCacheTTL), cfg.ListCacheTTL))
		cleanup = func(ctx context.Context) error {
			return errors.Join(closeStore(ctx), client.Close())
		}
		logger.Info("list cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	svc := service.NewContactService(store, logger, opts...)
	return api.InitRoutes(cfg, svc, logger), cleanup, nil
}
