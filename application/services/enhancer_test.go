package services

import (
	"context"
	"testing"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/infrastructure/cache"
	"gamegroup-backend/infrastructure/persistence/memory"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store       *memory.Store
	repos       ports.Repositories
	cache       *cache.TTLCache
	enhancer    *Enhancer
	invalidator *CacheInvalidator
	now         time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.NewStore()
	repos := store.Repositories()
	c := cache.New(cache.WithClock(func() time.Time { return now }))
	enhancer := NewEnhancer(repos, c, DefaultEnhancerConfig(), zap.NewNop())
	enhancer.now = func() time.Time { return now }

	return &fixture{
		store:       store,
		repos:       repos,
		cache:       c,
		enhancer:    enhancer,
		invalidator: NewCacheInvalidator(c, zap.NewNop()),
		now:         now,
	}
}

func (f *fixture) game(t *testing.T, id, name string, likes int, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.repos.Games.Save(context.Background(), &entities.Game{
		ID: id, Name: name, LikeCount: likes, CreatedAt: createdAt, UpdatedAt: createdAt,
	}))
}

func (f *fixture) favorite(t *testing.T, userID, gameID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.repos.Favorites.Save(context.Background(), &entities.Favorite{
		ID: userID + "-" + gameID, UserID: userID, GameID: gameID, CreatedAt: createdAt,
	}))
}

func (f *fixture) vote(t *testing.T, v *entities.Vote) {
	t.Helper()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = f.now
	}
	require.NoError(t, f.repos.Votes.Save(context.Background(), v))
}

func (f *fixture) team(t *testing.T, team *entities.Team) {
	t.Helper()
	require.NoError(t, f.repos.Teams.Save(context.Background(), team))
}

var jan1 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestEnhancer_FavoriteCountsFromFavorites(t *testing.T) {
	// Arrange
	f := newFixture(t, jan1)
	f.favorite(t, "u1", "g1", jan1)
	f.favorite(t, "u2", "g1", jan1)
	f.favorite(t, "u1", "g2", jan1)

	// Act
	counts, err := f.enhancer.GetFavoriteCounts(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 2, "g2": 1}, counts)
	assert.Equal(t, 0, f.store.Calls(ports.CollectionUsers, "ListWithFavorites"))
}

func TestEnhancer_FavoriteCountsFallBackToUserLists(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	require.NoError(t, f.repos.Users.Save(ctx, &entities.User{ID: "u1", FavoriteGameIDs: []string{"g1", "g2", "g1"}}))
	require.NoError(t, f.repos.Users.Save(ctx, &entities.User{ID: "u2", FavoriteGameIDs: []string{"g1"}}))
	require.NoError(t, f.repos.Users.Save(ctx, &entities.User{ID: "u3"}))
	f.store.DropCollection(ports.CollectionFavorites)

	counts, err := f.enhancer.GetFavoriteCounts(ctx)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 2, "g2": 1}, counts)
}

func TestEnhancer_FavoriteCountsFallBackToZeros(t *testing.T) {
	f := newFixture(t, jan1)
	f.game(t, "g1", "Catan", 3, jan1)
	f.game(t, "g2", "Azul", 1, jan1)
	f.store.DropCollection(ports.CollectionFavorites)
	f.store.DropCollection(ports.CollectionUsers)

	counts, err := f.enhancer.GetFavoriteCounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 0, "g2": 0}, counts)
}

func TestEnhancer_FavoriteCountsNeverFailWhenEverythingIsMissing(t *testing.T) {
	f := newFixture(t, jan1)
	f.store.DropCollection(ports.CollectionFavorites)
	f.store.DropCollection(ports.CollectionUsers)
	f.store.DropCollection(ports.CollectionGames)

	counts, err := f.enhancer.GetFavoriteCounts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestEnhancer_PermissionDeniedDoesNotFallBack(t *testing.T) {
	f := newFixture(t, jan1)
	f.store.FailWith(ports.CollectionFavorites, apperrors.NewForbiddenError(""))

	_, err := f.enhancer.GetFavoriteCounts(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, 0, f.store.Calls(ports.CollectionUsers, "ListWithFavorites"))
	assert.False(t, f.cache.Has(keyFavoriteCounts))
}

func TestEnhancer_FavoriteCountsAreCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	f.favorite(t, "u1", "g1", jan1)

	_, err := f.enhancer.GetFavoriteCounts(ctx)
	require.NoError(t, err)
	counts, err := f.enhancer.GetFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls(ports.CollectionFavorites, "List"))

	// Mutating the returned map must not leak into the cache
	counts["g1"] = 99
	again, err := f.enhancer.GetFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again["g1"])

	f.favorite(t, "u2", "g1", jan1)
	f.invalidator.InvalidateGameCaches()
	counts, err = f.enhancer.GetFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["g1"])
	assert.Equal(t, 2, f.store.Calls(ports.CollectionFavorites, "List"))
}

func TestEnhancer_EnhancedGamesRankingScore(t *testing.T) {
	f := newFixture(t, jan1)
	f.game(t, "old", "Old Game", 10, jan1.AddDate(0, 0, -40))
	f.game(t, "new", "New Game", 10, jan1)
	for _, u := range []string{"u1", "u2", "u3"} {
		f.favorite(t, u, "old", jan1)
		f.favorite(t, u, "new", jan1)
	}

	games, err := f.enhancer.GetEnhancedGames(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, games, 2)
	byID := make(map[string]entities.EnhancedGame)
	for _, g := range games {
		byID[g.ID] = g
	}
	assert.Equal(t, 3, byID["old"].FavoriteCount)
	assert.InDelta(t, 7.2, byID["old"].RankingScore, 1e-9)
	assert.InDelta(t, 7.2*1.2, byID["new"].RankingScore, 1e-9)
}

func TestEnhancer_EnhancedGamesSubsetIsCachedBySortedIDs(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	f.game(t, "g1", "Catan", 1, jan1)
	f.game(t, "g2", "Azul", 2, jan1)
	f.game(t, "g3", "Root", 3, jan1)

	first, err := f.enhancer.GetEnhancedGames(ctx, []string{"g2", "g1", "g2"})
	require.NoError(t, err)
	second, err := f.enhancer.GetEnhancedGames(ctx, []string{"g1", "g2"})
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.store.Calls(ports.CollectionGames, "GetByIDs"))
	assert.True(t, f.cache.Has("batch_games_g1,g2"))
	assert.True(t, f.cache.Has("enhanced_games_g1,g2"))

	f.invalidator.InvalidateGameCaches()
	assert.False(t, f.cache.Has("batch_games_g1,g2"))
	assert.False(t, f.cache.Has("enhanced_games_g1,g2"))
}

func TestEnhancer_EnhancedGamesEmptyWhenCollectionMissing(t *testing.T) {
	f := newFixture(t, jan1)
	f.store.DropCollection(ports.CollectionGames)

	games, err := f.enhancer.GetEnhancedGames(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestEnhancer_BatchVoteStats(t *testing.T) {
	// Arrange
	f := newFixture(t, jan1)
	f.game(t, "g1", "Catan", 0, jan1)
	f.game(t, "g2", "Azul", 0, jan1)
	f.vote(t, &entities.Vote{
		ID: "v1", Date: "2024-01-01", UserID: "u1", WantsToPlay: true,
		SelectedGameIDs: []string{"g1"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 5}},
	})
	f.vote(t, &entities.Vote{
		ID: "v2", Date: "2024-01-01", UserID: "u2",
		SelectedGameIDs: []string{"g1", "g2"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 3}, {GameID: "g2", Tendency: 9}},
	})
	f.vote(t, &entities.Vote{ID: "v3", Date: "2023-12-30", UserID: "u1", SelectedGameIDs: []string{"g2"}})
	f.vote(t, &entities.Vote{ID: "v4", Date: "2023-12-01", UserID: "u1", SelectedGameIDs: []string{"g2"}})

	// Act
	stats, err := f.enhancer.GetBatchVoteStats(context.Background(), 7)

	// Assert
	require.NoError(t, err)
	assert.Len(t, stats, 7)
	for _, d := range []string{"2023-12-26", "2023-12-31", "2024-01-01"} {
		assert.Contains(t, stats, d)
	}

	day := stats["2024-01-01"]
	assert.Equal(t, 2, day.TotalVotes)
	assert.Equal(t, 1, day.WantToPlayCount)
	assert.Equal(t, map[string]int{"g1": 2, "g2": 1}, day.GameVoteCounts)
	assert.InDelta(t, 4.0, day.GameTendencies["g1"].AverageTendency, 1e-9)
	assert.Equal(t, 2, day.GameTendencies["g1"].TendencyCount)
	assert.NotContains(t, day.GameTendencies, "g2")
	require.Len(t, day.TopGames, 2)
	assert.Equal(t, "g1", day.TopGames[0].GameID)
	assert.Equal(t, "Catan", day.TopGames[0].GameName)

	assert.Equal(t, 1, stats["2023-12-30"].TotalVotes)
	assert.Equal(t, 0, stats["2023-12-31"].TotalVotes)

	assert.Equal(t, 1, f.store.Calls(ports.CollectionVotes, "ListByDates"))
	assert.Equal(t, 1, f.store.Calls(ports.CollectionGames, "GetByIDs"))
}

func TestEnhancer_BatchVoteStatsTopGamesBounded(t *testing.T) {
	f := newFixture(t, jan1)
	f.vote(t, &entities.Vote{
		ID: "v1", Date: "2024-01-01", UserID: "u1",
		SelectedGameIDs: []string{"a", "b", "c", "d", "e", "f", "g"},
	})
	f.vote(t, &entities.Vote{ID: "v2", Date: "2024-01-01", UserID: "u2", SelectedGameIDs: []string{"g"}})

	stats, err := f.enhancer.GetBatchVoteStats(context.Background(), 1)

	require.NoError(t, err)
	top := stats["2024-01-01"].TopGames
	require.Len(t, top, topGamesPerDay)
	assert.Equal(t, "g", top[0].GameID)
	assert.Equal(t, "", top[0].GameName)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].VoteCount, top[i].VoteCount)
	}
}

func TestEnhancer_BatchVoteStatsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	f.store.DropCollection(ports.CollectionVotes)

	stats, err := f.enhancer.GetBatchVoteStats(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
	_, err = f.enhancer.GetBatchVoteStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls(ports.CollectionVotes, "ListByDates"))

	f.invalidator.InvalidateVoteCaches()
	_, err = f.enhancer.GetBatchVoteStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Calls(ports.CollectionVotes, "ListByDates"))
}

func TestEnhancer_GetUserDailyVote(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()

	_, err := f.enhancer.GetUserDailyVote(ctx, "", "2024-01-01")
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.enhancer.GetUserDailyVote(ctx, "u1", "01/01/2024")
	assert.True(t, apperrors.IsValidation(err))

	vote, err := f.enhancer.GetUserDailyVote(ctx, "u1", "")
	require.NoError(t, err)
	assert.Nil(t, vote)
	_, err = f.enhancer.GetUserDailyVote(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls(ports.CollectionVotes, "GetByUserAndDate"))

	f.vote(t, &entities.Vote{ID: "v1", Date: "2024-01-01", UserID: "u1", WantsToPlay: true})
	f.invalidator.InvalidateVoteCaches()

	vote, err = f.enhancer.GetUserDailyVote(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, "v1", vote.ID)
}

func TestCacheInvalidator_Scopes(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	f.game(t, "g1", "Catan", 1, jan1)

	load := func() {
		_, err := f.enhancer.GetEnhancedGames(ctx, nil)
		require.NoError(t, err)
		_, err = f.enhancer.GetBatchVoteStats(ctx, 3)
		require.NoError(t, err)
	}

	load()
	require.True(t, f.cache.Has(batchVoteStatsKey(3)))

	f.invalidator.InvalidateGameCaches()
	assert.False(t, f.cache.Has(keyFavoriteCounts))
	assert.False(t, f.cache.Has(keyGamesAll))
	assert.False(t, f.cache.Has(keyEnhancedGamesAll))
	assert.True(t, f.cache.Has(batchVoteStatsKey(3)))

	load()
	f.invalidator.InvalidateVoteCaches()
	assert.True(t, f.cache.Has(keyGamesAll))
	assert.False(t, f.cache.Has(batchVoteStatsKey(3)))

	load()
	f.invalidator.InvalidateAll()
	assert.Equal(t, 0, f.cache.Stats().Items)
}

func TestEnhancer_ReadsDoNotShareCachedValues(t *testing.T) {
	f := newFixture(t, jan1)
	ctx := context.Background()
	f.vote(t, &entities.Vote{
		ID: "v1", Date: "2024-01-01", UserID: "u1", WantsToPlay: true,
		SelectedGameIDs: []string{"g1"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 4}},
	})

	t.Run("batch vote stats", func(t *testing.T) {
		first, err := f.enhancer.GetBatchVoteStats(ctx, 2)
		require.NoError(t, err)
		first["2024-01-01"].TotalVotes = 999
		first["2024-01-01"].GameVoteCounts["g1"] = 999
		first["2024-01-01"].TopGames[0].VoteCount = 999
		delete(first, "2023-12-31")

		second, err := f.enhancer.GetBatchVoteStats(ctx, 2)
		require.NoError(t, err)
		require.Len(t, second, 2)
		assert.Equal(t, 1, second["2024-01-01"].TotalVotes)
		assert.Equal(t, 1, second["2024-01-01"].GameVoteCounts["g1"])
		assert.Equal(t, 1, second["2024-01-01"].TopGames[0].VoteCount)
		assert.Equal(t, 1, f.store.Calls(ports.CollectionVotes, "ListByDates"))
	})

	t.Run("user daily vote", func(t *testing.T) {
		first, err := f.enhancer.GetUserDailyVote(ctx, "u1", "2024-01-01")
		require.NoError(t, err)
		first.WantsToPlay = false
		first.SelectedGameIDs[0] = "changed"

		second, err := f.enhancer.GetUserDailyVote(ctx, "u1", "2024-01-01")
		require.NoError(t, err)
		assert.True(t, second.WantsToPlay)
		assert.Equal(t, []string{"g1"}, second.SelectedGameIDs)
	})
}

func TestEnhancer_DayKeysFollowTheCalendarZone(t *testing.T) {
	// 07:00 on Jan 2 at UTC+8 is still Jan 1 on the UTC calendar
	local := time.Date(2024, 1, 2, 7, 0, 0, 0, time.FixedZone("UTC+8", 8*60*60))
	f := newFixture(t, local)
	ctx := context.Background()
	f.vote(t, &entities.Vote{ID: "v1", Date: "2024-01-01", UserID: "u1", WantsToPlay: true})

	vote, err := f.enhancer.GetUserDailyVote(ctx, "u1", "")
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, "v1", vote.ID)

	stats, err := f.enhancer.GetBatchVoteStats(ctx, 1)
	require.NoError(t, err)
	require.Contains(t, stats, "2024-01-01")
	assert.Equal(t, 1, stats["2024-01-01"].TotalVotes)
}
