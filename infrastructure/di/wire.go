//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"gamegroup-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracer,
	ProvideTracingShutdown,
	ProvideCache,
	ProvideAWSConfig,
	ProvideRepositories,
	ProvideEventPublisher,
	ProvideEnhancer,
	ProvideInvalidator,
	ProvideReports,
	ProvideRecommender,
	ProvideCommandHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
