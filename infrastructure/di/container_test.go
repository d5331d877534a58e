package di

import (
	"context"
	"testing"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/valueobjects"
	"gamegroup-backend/infrastructure/config"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.StoreBackend = config.BackendMemory
	cfg.LogLevel = "error"
	return cfg
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	ctx := context.Background()

	container, err := InitializeContainer(ctx, memoryConfig())

	require.NoError(t, err)
	assert.NotNil(t, container.Enhancer)
	assert.NotNil(t, container.Reports)
	assert.NotNil(t, container.Recommender)
	assert.NotNil(t, container.Commands)
	assert.IsType(t, ports.NoopPublisher{}, container.Publisher)

	counts, err := container.Enhancer.GetFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Equal(t, 1, container.Cache.Stats().Items)

	require.NoError(t, container.Close(ctx))
	assert.Equal(t, 0, container.Cache.Stats().Items)
}

func TestProvideLogger_InvalidLevel(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "chatty"

	_, err := ProvideLogger(cfg)

	assert.Error(t, err)
}

func seriesCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestInitializeContainer_ServiceMetricsFollowConfig(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	rng := valueobjects.TimeRange{Start: now.Add(-24 * time.Hour), End: now}

	tests := []struct {
		name    string
		enabled bool
		want    int
	}{
		{name: "disabled", enabled: false, want: 0},
		{name: "enabled", enabled: true, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			cfg.EnableMetrics = tt.enabled
			container, err := InitializeContainer(ctx, cfg)
			require.NoError(t, err)
			defer func() { _ = container.Close(ctx) }()

			_, err = container.Reports.TeamReport(ctx, rng)
			require.NoError(t, err)
			_, err = container.Recommender.GetRecommendedTeams(ctx, "u1")
			require.NoError(t, err)

			assert.Equal(t, tt.want, seriesCount(container.Metrics.ReportsBuilt))
			assert.Equal(t, tt.want, seriesCount(container.Metrics.Recommendations))
		})
	}
}
