package services

import (
	"context"
	"maps"
	"sort"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/core/valueobjects"
	"gamegroup-backend/domain/scoring"
	"gamegroup-backend/infrastructure/cache"
	apperrors "gamegroup-backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// topGamesPerDay bounds DayStats.TopGames
const topGamesPerDay = 5

// EnhancerConfig holds the cache lifetimes used by the enhancer
type EnhancerConfig struct {
	DefaultTTL   time.Duration
	VoteStatsTTL time.Duration
}

// DefaultEnhancerConfig returns the standard cache lifetimes
func DefaultEnhancerConfig() EnhancerConfig {
	return EnhancerConfig{
		DefaultTTL:   5 * time.Minute,
		VoteStatsTTL: 15 * time.Minute,
	}
}

// favoriteCountStrategy is one source of favorite counts. Strategies are
// tried in order; only a NOT_FOUND error moves on to the next one.
type favoriteCountStrategy struct {
	name  string
	count func(ctx context.Context) (map[string]int, error)
}

// Enhancer reads raw collections through the cache and derives per-game
// metrics and per-day vote statistics.
type Enhancer struct {
	repos  ports.Repositories
	cache  *cache.TTLCache
	config EnhancerConfig
	logger *zap.Logger
	now    func() time.Time

	favoriteStrategies []favoriteCountStrategy
}

// NewEnhancer creates a new Enhancer
func NewEnhancer(repos ports.Repositories, c *cache.TTLCache, config EnhancerConfig, logger *zap.Logger) *Enhancer {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultEnhancerConfig().DefaultTTL
	}
	if config.VoteStatsTTL <= 0 {
		config.VoteStatsTTL = DefaultEnhancerConfig().VoteStatsTTL
	}

	e := &Enhancer{
		repos:  repos,
		cache:  c,
		config: config,
		logger: logger,
		now:    time.Now,
	}
	e.favoriteStrategies = []favoriteCountStrategy{
		{name: "favorites", count: e.countFromFavorites},
		{name: "user_lists", count: e.countFromUserLists},
		{name: "zero_counts", count: e.zeroCounts},
	}
	return e
}

// GetFavoriteCounts returns the number of favorites per game id.
func (e *Enhancer) GetFavoriteCounts(ctx context.Context) (map[string]int, error) {
	counts, err := cache.GetOrLoad(ctx, e.cache, keyFavoriteCounts, e.config.DefaultTTL, e.loadFavoriteCounts)
	if err != nil {
		return nil, err
	}
	return maps.Clone(counts), nil
}

func (e *Enhancer) loadFavoriteCounts(ctx context.Context) (map[string]int, error) {
	for _, strategy := range e.favoriteStrategies {
		counts, err := strategy.count(ctx)
		if err == nil {
			e.logger.Debug("Favorite counts loaded",
				zap.String("source", strategy.name),
				zap.Int("games", len(counts)),
			)
			return counts, nil
		}
		if !apperrors.IsNotFound(err) {
			e.logger.Error("Favorite count source failed",
				zap.String("source", strategy.name),
				zap.Error(err),
			)
			return nil, err
		}
		e.logger.Info("Favorite count source unavailable, falling back",
			zap.String("source", strategy.name),
			zap.Error(err),
		)
	}
	return map[string]int{}, nil
}

func (e *Enhancer) countFromFavorites(ctx context.Context) (map[string]int, error) {
	favorites, err := e.repos.Favorites.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range favorites {
		if f.GameID != "" {
			counts[f.GameID]++
		}
	}
	return counts, nil
}

func (e *Enhancer) countFromUserLists(ctx context.Context) (map[string]int, error) {
	users, err := e.repos.Users.ListWithFavorites(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, u := range users {
		for _, id := range normalizeIDs(u.FavoriteGameIDs) {
			counts[id]++
		}
	}
	return counts, nil
}

// zeroCounts is the last resort and never fails.
func (e *Enhancer) zeroCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	games, err := e.loadAllGames(ctx)
	if err != nil {
		e.logger.Warn("Could not list games for zero favorite counts", zap.Error(err))
		return counts, nil
	}
	for _, g := range games {
		counts[g.ID] = 0
	}
	return counts, nil
}

func (e *Enhancer) loadAllGames(ctx context.Context) ([]*entities.Game, error) {
	return cache.GetOrLoad(ctx, e.cache, keyGamesAll, e.config.DefaultTTL, func(ctx context.Context) ([]*entities.Game, error) {
		games, err := e.repos.Games.List(ctx)
		if apperrors.IsNotFound(err) {
			return []*entities.Game{}, nil
		}
		return games, err
	})
}

func (e *Enhancer) loadGamesByIDs(ctx context.Context, sortedIDs []string) ([]*entities.Game, error) {
	return cache.GetOrLoad(ctx, e.cache, batchGamesKey(sortedIDs), e.config.DefaultTTL, func(ctx context.Context) ([]*entities.Game, error) {
		games, err := e.repos.Games.GetByIDs(ctx, sortedIDs)
		if apperrors.IsNotFound(err) {
			return []*entities.Game{}, nil
		}
		return games, err
	})
}

// GetEnhancedGames returns games joined with their favorite count and
// ranking score. An empty ids slice means every game.
func (e *Enhancer) GetEnhancedGames(ctx context.Context, ids []string) ([]entities.EnhancedGame, error) {
	sortedIDs := normalizeIDs(ids)
	key := keyEnhancedGamesAll
	if len(ids) > 0 {
		if len(sortedIDs) == 0 {
			return []entities.EnhancedGame{}, nil
		}
		key = enhancedGamesKey(sortedIDs)
	}

	enhanced, err := cache.GetOrLoad(ctx, e.cache, key, e.config.DefaultTTL, func(ctx context.Context) ([]entities.EnhancedGame, error) {
		var (
			games  []*entities.Game
			counts map[string]int
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			if len(sortedIDs) == 0 {
				games, err = e.loadAllGames(gctx)
			} else {
				games, err = e.loadGamesByIDs(gctx, sortedIDs)
			}
			return err
		})
		g.Go(func() error {
			var err error
			counts, err = e.GetFavoriteCounts(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		now := e.now()
		out := make([]entities.EnhancedGame, 0, len(games))
		for _, game := range games {
			favorites := counts[game.ID]
			out = append(out, entities.EnhancedGame{
				Game:          *game,
				FavoriteCount: favorites,
				RankingScore:  scoring.RankingScore(game.LikeCount, favorites, game.CreatedAt, now),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]entities.EnhancedGame(nil), enhanced...), nil
}

// GetBatchVoteStats returns per-day vote statistics for the last days days,
// today included. Every day in the window has an entry.
func (e *Enhancer) GetBatchVoteStats(ctx context.Context, days int) (map[string]*entities.DayStats, error) {
	if days < 1 {
		days = 1
	}

	cached, err := cache.GetOrLoad(ctx, e.cache, batchVoteStatsKey(days), e.config.VoteStatsTTL, func(ctx context.Context) (map[string]*entities.DayStats, error) {
		dates := valueobjects.LastNDays(e.now().In(valueobjects.Calendar), days)

		votes, err := e.repos.Votes.ListByDates(ctx, dates)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}

		tallies := make(map[string]*dayTally, len(dates))
		for _, d := range dates {
			tallies[d] = newDayTally(d)
		}
		for _, v := range votes {
			if t, ok := tallies[v.Date]; ok {
				t.add(v)
			}
		}

		gameIDs := make([]string, 0)
		for _, t := range tallies {
			gameIDs = append(gameIDs, t.gameIDs()...)
		}
		names, err := e.gameNames(ctx, gameIDs)
		if err != nil {
			return nil, err
		}

		stats := make(map[string]*entities.DayStats, len(tallies))
		for d, t := range tallies {
			stats[d] = t.stats(names)
		}

		e.logger.Debug("Built batch vote stats",
			zap.Int("days", days),
			zap.Int("votes", len(votes)),
			zap.Int("games", len(names)),
		)
		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]*entities.DayStats, len(cached))
	for d, s := range cached {
		out[d] = s.Clone()
	}
	return out, nil
}

// gameNames resolves names for ids with a single batched lookup.
func (e *Enhancer) gameNames(ctx context.Context, ids []string) (map[string]string, error) {
	ids = normalizeIDs(ids)
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	games, err := e.repos.Games.GetByIDs(ctx, ids)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return names, nil
		}
		return nil, err
	}
	for _, g := range games {
		names[g.ID] = g.Name
	}
	return names, nil
}

// GetUserDailyVote returns the user's ballot for date, or nil when there is none.
func (e *Enhancer) GetUserDailyVote(ctx context.Context, userID, date string) (*entities.Vote, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user is required")
	}
	if date == "" {
		date = valueobjects.Today(e.now())
	}
	if _, err := valueobjects.ParseDate(date, time.UTC); err != nil {
		return nil, apperrors.NewValidationError("date must be YYYY-MM-DD")
	}

	vote, err := cache.GetOrLoad(ctx, e.cache, userVoteKey(userID, date), e.config.DefaultTTL, func(ctx context.Context) (*entities.Vote, error) {
		vote, err := e.repos.Votes.GetByUserAndDate(ctx, userID, date)
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return vote, err
	})
	if err != nil {
		return nil, err
	}
	return vote.Clone(), nil
}

// dayTally accumulates one day's ballots. order keeps first-seen game order
// for stable ranking.
type dayTally struct {
	date          string
	total         int
	wantToPlay    int
	voteCounts    map[string]int
	tendencySum   map[string]int
	tendencyCount map[string]int
	known         map[string]struct{}
	order         []string
}

func newDayTally(date string) *dayTally {
	return &dayTally{
		date:          date,
		voteCounts:    make(map[string]int),
		tendencySum:   make(map[string]int),
		tendencyCount: make(map[string]int),
		known:         make(map[string]struct{}),
	}
}

func (t *dayTally) see(gameID string) {
	if _, ok := t.known[gameID]; !ok {
		t.known[gameID] = struct{}{}
		t.order = append(t.order, gameID)
	}
}

func (t *dayTally) add(v *entities.Vote) {
	t.total++
	if v.WantsToPlay {
		t.wantToPlay++
	}
	for _, id := range v.SelectedGames() {
		t.see(id)
		t.voteCounts[id]++
	}
	for _, p := range v.ValidPreferences() {
		t.see(p.GameID)
		t.tendencySum[p.GameID] += p.Tendency
		t.tendencyCount[p.GameID]++
	}
}

func (t *dayTally) gameIDs() []string {
	return t.order
}

func (t *dayTally) stats(names map[string]string) *entities.DayStats {
	tendencies := make(map[string]entities.TendencyStats, len(t.tendencyCount))
	for id, n := range t.tendencyCount {
		tendencies[id] = entities.TendencyStats{
			AverageTendency: float64(t.tendencySum[id]) / float64(n),
			TendencyCount:   n,
		}
	}

	top := make([]entities.TopGame, 0, len(t.voteCounts))
	for _, id := range t.order {
		count, ok := t.voteCounts[id]
		if !ok {
			continue
		}
		top = append(top, entities.TopGame{
			GameID:          id,
			GameName:        names[id],
			VoteCount:       count,
			AverageTendency: tendencies[id].AverageTendency,
		})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].VoteCount > top[j].VoteCount })
	if len(top) > topGamesPerDay {
		top = top[:topGamesPerDay]
	}

	return &entities.DayStats{
		Date:            t.date,
		TotalVotes:      t.total,
		WantToPlayCount: t.wantToPlay,
		GameVoteCounts:  maps.Clone(t.voteCounts),
		TopGames:        top,
		GameTendencies:  tendencies,
	}
}
