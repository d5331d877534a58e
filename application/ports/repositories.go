package ports

import (
	"context"
	"time"

	"gamegroup-backend/domain/core/entities"
)

// Collection names, shared by every store implementation and used in errors and metrics.
const (
	CollectionGames     = "games"
	CollectionFavorites = "favorites"
	CollectionUsers     = "users"
	CollectionVotes     = "votes"
	CollectionTeams     = "teams"
)

// Every list method returns a collection NOT_FOUND error when the backing
// collection does not exist yet, and a record NOT_FOUND error from the Get
// methods when a single record is absent.

// GameRepository defines persistence for the games catalogue
type GameRepository interface {
	// List returns every game
	List(ctx context.Context) ([]*entities.Game, error)

	// GetByIDs fetches the given games in as few round trips as possible; unknown ids are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Game, error)

	// GetByID retrieves a single game
	GetByID(ctx context.Context, id string) (*entities.Game, error)

	// Save creates or replaces a game
	Save(ctx context.Context, game *entities.Game) error

	// Delete removes a game
	Delete(ctx context.Context, id string) error

	// IncrementLikes atomically adds delta to the like counter and returns the new value
	IncrementLikes(ctx context.Context, id string, delta int) (int, error)
}

// FavoriteRepository defines persistence for the favorites join collection
type FavoriteRepository interface {
	List(ctx context.Context) ([]*entities.Favorite, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Favorite, error)
	Exists(ctx context.Context, userID, gameID string) (bool, error)
	Save(ctx context.Context, favorite *entities.Favorite) error
	Delete(ctx context.Context, userID, gameID string) error
}

// UserRepository defines read access to user records
type UserRepository interface {
	List(ctx context.Context) ([]*entities.User, error)

	// ListWithFavorites returns users whose embedded favorites list is non-empty
	ListWithFavorites(ctx context.Context) ([]*entities.User, error)

	GetByID(ctx context.Context, id string) (*entities.User, error)
	Save(ctx context.Context, user *entities.User) error
}

// VoteRepository defines persistence for daily ballots
type VoteRepository interface {
	// ListByDates returns every vote whose date is one of dates, in a single logical query
	ListByDates(ctx context.Context, dates []string) ([]*entities.Vote, error)

	// ListBetween returns votes with startDate <= date <= endDate (YYYY-MM-DD)
	ListBetween(ctx context.Context, startDate, endDate string) ([]*entities.Vote, error)

	// ListRecentByUser returns the user's latest votes, newest first
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entities.Vote, error)

	// GetByUserAndDate returns the user's most recent ballot for date
	GetByUserAndDate(ctx context.Context, userID, date string) (*entities.Vote, error)

	Save(ctx context.Context, vote *entities.Vote) error
}

// TeamRepository defines persistence for teams. Destroyed teams are deleted,
// so they never appear in any listing.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Team, error)

	// ListOpen returns up to limit open teams, newest first
	ListOpen(ctx context.Context, limit int) ([]*entities.Team, error)

	// ListOpenForGames returns up to limit open teams for gameIDs that excludeUserID
	// neither leads nor belongs to, newest first
	ListOpenForGames(ctx context.Context, gameIDs []string, excludeUserID string, limit int) ([]*entities.Team, error)

	// ListCreatedBetween returns teams created inside [start, end]
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Team, error)

	Save(ctx context.Context, team *entities.Team) error
	Delete(ctx context.Context, id string) error
}

// Repositories bundles one repository per collection
type Repositories struct {
	Games     GameRepository
	Favorites FavoriteRepository
	Users     UserRepository
	Votes     VoteRepository
	Teams     TeamRepository
}
