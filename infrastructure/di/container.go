package di

import (
	"context"

	"gamegroup-backend/application/commands"
	"gamegroup-backend/application/ports"
	"gamegroup-backend/application/services"
	"gamegroup-backend/infrastructure/cache"
	"gamegroup-backend/infrastructure/config"
	"gamegroup-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Metrics         *observability.Collector
	Tracer          *observability.Tracer
	TracingShutdown TracingShutdown
	Cache           *cache.TTLCache
	Repositories    ports.Repositories
	Publisher       ports.EventPublisher
	Enhancer        *services.Enhancer
	Invalidator     *services.CacheInvalidator
	Reports         *services.Reports
	Recommender     *services.Recommender
	Commands        *commands.Handler
}

// Close releases the cache and flushes tracing and logs
func (c *Container) Close(ctx context.Context) error {
	c.Cache.Clear()

	var err error
	if c.TracingShutdown != nil {
		err = c.TracingShutdown(ctx)
	}
	_ = c.Logger.Sync()
	return err
}
