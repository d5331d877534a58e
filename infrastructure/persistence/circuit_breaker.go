// Package persistence wraps the record store repositories with a circuit
// breaker per collection and records per-operation metrics.
package persistence

import (
	"context"
	"errors"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// OperationRecorder receives the outcome of every store call
type OperationRecorder interface {
	RecordStoreOperation(collection, operation string, duration time.Duration, err error)
}

// BreakerConfig holds configuration for the store circuit breakers
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for circuit breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// countsAsSuccess keeps expected outcomes from tripping the breaker. A
// missing collection drives fallbacks and is not a store failure.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return apperrors.IsNotFound(err) || apperrors.IsValidation(err) || apperrors.IsConflict(err)
}

type guard struct {
	collection string
	cb         *gobreaker.CircuitBreaker
	recorder   OperationRecorder
	logger     *zap.Logger
}

func newGuard(collection string, config BreakerConfig, recorder OperationRecorder, logger *zap.Logger) *guard {
	g := &guard{
		collection: collection,
		recorder:   recorder,
		logger:     logger,
	}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store-" + collection,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: countsAsSuccess,
	})
	return g
}

// call runs fn through the breaker. Rejections surface as UNAVAILABLE.
func call[T any](g *guard, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := g.cb.Execute(func() (interface{}, error) {
		value, err := fn()
		return value, err
	})
	if g.recorder != nil {
		g.recorder.RecordStoreOperation(g.collection, operation, time.Since(start), err)
	}

	var zero T
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Warn("Store call rejected by circuit breaker",
			zap.String("collection", g.collection),
			zap.String("operation", operation),
		)
		return zero, apperrors.NewUnavailableError(g.collection + " store").WithCause(err)
	}
	if err != nil {
		return zero, err
	}
	value, _ := result.(T)
	return value, nil
}

func exec(g *guard, operation string, fn func() error) error {
	_, err := call(g, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// WithCircuitBreakers decorates every repository with its own breaker.
func WithCircuitBreakers(repos ports.Repositories, config BreakerConfig, recorder OperationRecorder, logger *zap.Logger) ports.Repositories {
	return ports.Repositories{
		Games:     &gameRepository{next: repos.Games, g: newGuard(ports.CollectionGames, config, recorder, logger)},
		Favorites: &favoriteRepository{next: repos.Favorites, g: newGuard(ports.CollectionFavorites, config, recorder, logger)},
		Users:     &userRepository{next: repos.Users, g: newGuard(ports.CollectionUsers, config, recorder, logger)},
		Votes:     &voteRepository{next: repos.Votes, g: newGuard(ports.CollectionVotes, config, recorder, logger)},
		Teams:     &teamRepository{next: repos.Teams, g: newGuard(ports.CollectionTeams, config, recorder, logger)},
	}
}

type gameRepository struct {
	next ports.GameRepository
	g    *guard
}

func (r *gameRepository) List(ctx context.Context) ([]*entities.Game, error) {
	return call(r.g, "List", func() ([]*entities.Game, error) { return r.next.List(ctx) })
}

func (r *gameRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Game, error) {
	return call(r.g, "GetByIDs", func() ([]*entities.Game, error) { return r.next.GetByIDs(ctx, ids) })
}

func (r *gameRepository) GetByID(ctx context.Context, id string) (*entities.Game, error) {
	return call(r.g, "GetByID", func() (*entities.Game, error) { return r.next.GetByID(ctx, id) })
}

func (r *gameRepository) Save(ctx context.Context, game *entities.Game) error {
	return exec(r.g, "Save", func() error { return r.next.Save(ctx, game) })
}

func (r *gameRepository) Delete(ctx context.Context, id string) error {
	return exec(r.g, "Delete", func() error { return r.next.Delete(ctx, id) })
}

func (r *gameRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	return call(r.g, "IncrementLikes", func() (int, error) { return r.next.IncrementLikes(ctx, id, delta) })
}

type favoriteRepository struct {
	next ports.FavoriteRepository
	g    *guard
}

func (r *favoriteRepository) List(ctx context.Context) ([]*entities.Favorite, error) {
	return call(r.g, "List", func() ([]*entities.Favorite, error) { return r.next.List(ctx) })
}

func (r *favoriteRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Favorite, error) {
	return call(r.g, "ListCreatedBetween", func() ([]*entities.Favorite, error) {
		return r.next.ListCreatedBetween(ctx, start, end)
	})
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, gameID string) (bool, error) {
	return call(r.g, "Exists", func() (bool, error) { return r.next.Exists(ctx, userID, gameID) })
}

func (r *favoriteRepository) Save(ctx context.Context, favorite *entities.Favorite) error {
	return exec(r.g, "Save", func() error { return r.next.Save(ctx, favorite) })
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, gameID string) error {
	return exec(r.g, "Delete", func() error { return r.next.Delete(ctx, userID, gameID) })
}

type userRepository struct {
	next ports.UserRepository
	g    *guard
}

func (r *userRepository) List(ctx context.Context) ([]*entities.User, error) {
	return call(r.g, "List", func() ([]*entities.User, error) { return r.next.List(ctx) })
}

func (r *userRepository) ListWithFavorites(ctx context.Context) ([]*entities.User, error) {
	return call(r.g, "ListWithFavorites", func() ([]*entities.User, error) { return r.next.ListWithFavorites(ctx) })
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return call(r.g, "GetByID", func() (*entities.User, error) { return r.next.GetByID(ctx, id) })
}

func (r *userRepository) Save(ctx context.Context, user *entities.User) error {
	return exec(r.g, "Save", func() error { return r.next.Save(ctx, user) })
}

type voteRepository struct {
	next ports.VoteRepository
	g    *guard
}

func (r *voteRepository) ListByDates(ctx context.Context, dates []string) ([]*entities.Vote, error) {
	return call(r.g, "ListByDates", func() ([]*entities.Vote, error) { return r.next.ListByDates(ctx, dates) })
}

func (r *voteRepository) ListBetween(ctx context.Context, startDate, endDate string) ([]*entities.Vote, error) {
	return call(r.g, "ListBetween", func() ([]*entities.Vote, error) {
		return r.next.ListBetween(ctx, startDate, endDate)
	})
}

func (r *voteRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entities.Vote, error) {
	return call(r.g, "ListRecentByUser", func() ([]*entities.Vote, error) {
		return r.next.ListRecentByUser(ctx, userID, limit)
	})
}

func (r *voteRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*entities.Vote, error) {
	return call(r.g, "GetByUserAndDate", func() (*entities.Vote, error) {
		return r.next.GetByUserAndDate(ctx, userID, date)
	})
}

func (r *voteRepository) Save(ctx context.Context, vote *entities.Vote) error {
	return exec(r.g, "Save", func() error { return r.next.Save(ctx, vote) })
}

type teamRepository struct {
	next ports.TeamRepository
	g    *guard
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*entities.Team, error) {
	return call(r.g, "GetByID", func() (*entities.Team, error) { return r.next.GetByID(ctx, id) })
}

func (r *teamRepository) ListOpen(ctx context.Context, limit int) ([]*entities.Team, error) {
	return call(r.g, "ListOpen", func() ([]*entities.Team, error) { return r.next.ListOpen(ctx, limit) })
}

func (r *teamRepository) ListOpenForGames(ctx context.Context, gameIDs []string, excludeUserID string, limit int) ([]*entities.Team, error) {
	return call(r.g, "ListOpenForGames", func() ([]*entities.Team, error) {
		return r.next.ListOpenForGames(ctx, gameIDs, excludeUserID, limit)
	})
}

func (r *teamRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Team, error) {
	return call(r.g, "ListCreatedBetween", func() ([]*entities.Team, error) {
		return r.next.ListCreatedBetween(ctx, start, end)
	})
}

func (r *teamRepository) Save(ctx context.Context, team *entities.Team) error {
	return exec(r.g, "Save", func() error { return r.next.Save(ctx, team) })
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return exec(r.g, "Delete", func() error { return r.next.Delete(ctx, id) })
}
