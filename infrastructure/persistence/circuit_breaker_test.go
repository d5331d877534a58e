package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/infrastructure/persistence/memory"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedOp struct {
	collection, operation string
	failed                bool
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (f *fakeRecorder) RecordStoreOperation(collection, operation string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recordedOp{collection, operation, err != nil})
}

func testConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestCircuitBreaker_OpensOnFailuresAndReportsUnavailable(t *testing.T) {
	// Arrange
	store := memory.NewStore()
	recorder := &fakeRecorder{}
	repos := WithCircuitBreakers(store.Repositories(), testConfig(), recorder, zap.NewNop())
	ctx := context.Background()
	outage := apperrors.NewNetworkError("connection reset", errors.New("reset"))
	store.FailWith(ports.CollectionGames, outage)

	// Act
	_, err1 := repos.Games.List(ctx)
	_, err2 := repos.Games.List(ctx)
	store.FailWith(ports.CollectionGames, nil)
	_, err3 := repos.Games.List(ctx)

	// Assert
	assert.True(t, apperrors.IsNetwork(err1))
	assert.True(t, apperrors.IsNetwork(err2))
	require.Error(t, err3)
	assert.True(t, apperrors.IsType(err3, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, 2, store.Calls(ports.CollectionGames, "List"), "open breaker short-circuits the store")
	assert.Len(t, recorder.ops, 3)
}

func TestCircuitBreaker_NotFoundDoesNotTrip(t *testing.T) {
	store := memory.NewStore()
	repos := WithCircuitBreakers(store.Repositories(), testConfig(), nil, zap.NewNop())
	ctx := context.Background()
	store.DropCollection(ports.CollectionFavorites)

	for i := 0; i < 5; i++ {
		_, err := repos.Favorites.List(ctx)
		require.True(t, apperrors.IsCollectionNotFound(err))
	}
	for i := 0; i < 5; i++ {
		_, err := repos.Games.GetByID(ctx, "missing")
		require.True(t, apperrors.IsNotFound(err))
	}

	assert.Equal(t, 5, store.Calls(ports.CollectionFavorites, "List"))
}

func TestCircuitBreaker_BreakersAreIndependentPerCollection(t *testing.T) {
	store := memory.NewStore()
	repos := WithCircuitBreakers(store.Repositories(), testConfig(), nil, zap.NewNop())
	ctx := context.Background()
	store.FailWith(ports.CollectionVotes, apperrors.NewForbiddenError(""))

	repos.Votes.ListByDates(ctx, []string{"2024-01-01"})
	repos.Votes.ListByDates(ctx, []string{"2024-01-01"})

	_, err := repos.Teams.ListOpen(ctx, 5)
	assert.NoError(t, err)
}

func TestCircuitBreaker_PassesValuesThrough(t *testing.T) {
	store := memory.NewStore()
	recorder := &fakeRecorder{}
	repos := WithCircuitBreakers(store.Repositories(), DefaultBreakerConfig(), recorder, zap.NewNop())
	ctx := context.Background()

	exists, err := repos.Favorites.Exists(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.Len(t, recorder.ops, 1)
	assert.Equal(t, recordedOp{ports.CollectionFavorites, "Exists", false}, recorder.ops[0])
}
