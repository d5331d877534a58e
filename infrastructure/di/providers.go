package di

import (
	"context"
	"fmt"

	"gamegroup-backend/application/commands"
	"gamegroup-backend/application/ports"
	"gamegroup-backend/application/services"
	"gamegroup-backend/infrastructure/cache"
	"gamegroup-backend/infrastructure/config"
	"gamegroup-backend/infrastructure/messaging/eventbridge"
	"gamegroup-backend/infrastructure/persistence"
	"gamegroup-backend/infrastructure/persistence/dynamodb"
	"gamegroup-backend/infrastructure/persistence/memory"
	"gamegroup-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TracingShutdown flushes and stops the tracer provider
type TracingShutdown func(ctx context.Context) error

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", cfg.ServiceName)), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideTracer creates the tracer used around report builds
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.ServiceName)
}

// ProvideTracingShutdown installs the OTLP exporter when tracing is enabled
func ProvideTracingShutdown(ctx context.Context, cfg *config.Config, logger *zap.Logger) (TracingShutdown, error) {
	if !cfg.EnableTracing {
		return func(context.Context) error { return nil }, nil
	}

	shutdown, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
	return shutdown, nil
}

// ProvideCache creates the process-wide TTL cache
func ProvideCache(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *cache.TTLCache {
	opts := []cache.Option{
		cache.WithDefaultTTL(cfg.CacheDefaultTTL),
		cache.WithLogger(logger.Named("cache")),
	}
	if cfg.EnableMetrics {
		opts = append(opts, cache.WithObserver(metrics))
	}
	return cache.New(opts...)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideRepositories selects the record store backend and wraps every
// repository in a circuit breaker.
func ProvideRepositories(awsCfg aws.Config, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) ports.Repositories {
	var repos ports.Repositories
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("Using the in-memory record store; data is lost on restart")
		repos = memory.NewStore().Repositories()
	default:
		client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		repos = dynamodb.NewRepositories(client, dynamodb.Tables{
			Games:              cfg.GamesTable,
			Favorites:          cfg.FavoritesTable,
			Users:              cfg.UsersTable,
			Votes:              cfg.VotesTable,
			Teams:              cfg.TeamsTable,
			VotesByUserIndex:   cfg.VotesByUserIndex,
			TeamsByStatusIndex: cfg.TeamsByStatusIndex,
		}, logger.Named("dynamodb"))
	}

	var recorder persistence.OperationRecorder
	if cfg.EnableMetrics {
		recorder = metrics
	}
	return persistence.WithCircuitBreakers(repos, persistence.BreakerConfig{
		MaxRequests:      cfg.BreakerMaxRequests,
		Interval:         cfg.BreakerInterval,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: cfg.BreakerFailureThreshold,
		MinRequests:      cfg.BreakerMinRequests,
	}, recorder, logger.Named("breaker"))
}

// ProvideEventPublisher returns the EventBridge publisher, or a no-op one
// when events are disabled.
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return ports.NoopPublisher{}
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger.Named("events"))
}

// ProvideEnhancer creates the batched enhancer
func ProvideEnhancer(repos ports.Repositories, c *cache.TTLCache, cfg *config.Config, logger *zap.Logger) *services.Enhancer {
	return services.NewEnhancer(repos, c, services.EnhancerConfig{
		DefaultTTL:   cfg.CacheDefaultTTL,
		VoteStatsTTL: cfg.VoteStatsTTL,
	}, logger.Named("enhancer"))
}

// ProvideInvalidator creates the cache invalidation surface
func ProvideInvalidator(c *cache.TTLCache, logger *zap.Logger) *services.CacheInvalidator {
	return services.NewCacheInvalidator(c, logger.Named("invalidation"))
}

// ProvideReports creates the report aggregator
func ProvideReports(
	repos ports.Repositories,
	enhancer *services.Enhancer,
	tracer *observability.Tracer,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.Reports {
	return services.NewReports(repos, enhancer, tracer, serviceRecorder(cfg, metrics), logger.Named("reports"))
}

// ProvideRecommender creates the team recommender
func ProvideRecommender(
	repos ports.Repositories,
	tracer *observability.Tracer,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.Recommender {
	return services.NewRecommender(repos, tracer, serviceRecorder(cfg, metrics), logger.Named("recommendations"))
}

// serviceRecorder returns nil when metrics are disabled so services fall
// back to their no-op recorder.
func serviceRecorder(cfg *config.Config, metrics *observability.Collector) services.Recorder {
	if !cfg.EnableMetrics || metrics == nil {
		return nil
	}
	return metrics
}

// ProvideCommandHandler creates the mutation handler
func ProvideCommandHandler(
	repos ports.Repositories,
	publisher ports.EventPublisher,
	invalidator *services.CacheInvalidator,
	logger *zap.Logger,
) *commands.Handler {
	return commands.NewHandler(repos, publisher, invalidator, logger.Named("commands"))
}
