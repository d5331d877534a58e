package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"
)

// byCreated orders records oldest first, breaking ties by id, so listings
// are deterministic.
func byCreated[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(items[i]) < id(items[j])
	})
}

// GameRepository stores games
type GameRepository struct {
	store *Store
}

func (r *GameRepository) List(ctx context.Context) ([]*entities.Game, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "List", false); err != nil {
		return nil, err
	}

	games := make([]*entities.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, cloneGame(g))
	}
	byCreated(games, func(g *entities.Game) time.Time { return g.CreatedAt }, func(g *entities.Game) string { return g.ID })
	return games, nil
}

func (r *GameRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Game, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "GetByIDs", false); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids))
	games := make([]*entities.Game, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g, ok := s.games[id]; ok {
			games = append(games, cloneGame(g))
		}
	}
	return games, nil
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (*entities.Game, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "GetByID", false); err != nil {
		return nil, err
	}

	g, ok := s.games[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("game")
	}
	return cloneGame(g), nil
}

func (r *GameRepository) Save(ctx context.Context, game *entities.Game) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "Save", true); err != nil {
		return err
	}

	s.games[game.ID] = cloneGame(game)
	return nil
}

func (r *GameRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "Delete", false); err != nil {
		return err
	}

	if _, ok := s.games[id]; !ok {
		return apperrors.NewNotFoundError("game")
	}
	delete(s.games, id)
	return nil
}

func (r *GameRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionGames, "IncrementLikes", false); err != nil {
		return 0, err
	}

	g, ok := s.games[id]
	if !ok {
		return 0, apperrors.NewNotFoundError("game")
	}
	g.LikeCount += delta
	if g.LikeCount < 0 {
		g.LikeCount = 0
	}
	return g.LikeCount, nil
}

// FavoriteRepository stores favorites, keyed by (user, game)
type FavoriteRepository struct {
	store *Store
}

func favoriteKey(userID, gameID string) string {
	return userID + "#" + gameID
}

func (r *FavoriteRepository) List(ctx context.Context) ([]*entities.Favorite, error) {
	return r.list("List", func(*entities.Favorite) bool { return true })
}

func (r *FavoriteRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Favorite, error) {
	return r.list("ListCreatedBetween", func(f *entities.Favorite) bool {
		return !f.CreatedAt.Before(start) && !f.CreatedAt.After(end)
	})
}

func (r *FavoriteRepository) list(operation string, keep func(*entities.Favorite) bool) ([]*entities.Favorite, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionFavorites, operation, false); err != nil {
		return nil, err
	}

	favorites := make([]*entities.Favorite, 0, len(s.favorites))
	for _, f := range s.favorites {
		if keep(f) {
			favorites = append(favorites, cloneFavorite(f))
		}
	}
	byCreated(favorites, func(f *entities.Favorite) time.Time { return f.CreatedAt }, func(f *entities.Favorite) string { return f.ID })
	return favorites, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, gameID string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionFavorites, "Exists", false); err != nil {
		return false, err
	}

	_, ok := s.favorites[favoriteKey(userID, gameID)]
	return ok, nil
}

func (r *FavoriteRepository) Save(ctx context.Context, favorite *entities.Favorite) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionFavorites, "Save", true); err != nil {
		return err
	}

	s.favorites[favoriteKey(favorite.UserID, favorite.GameID)] = cloneFavorite(favorite)
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, gameID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionFavorites, "Delete", false); err != nil {
		return err
	}

	key := favoriteKey(userID, gameID)
	if _, ok := s.favorites[key]; !ok {
		return apperrors.NewNotFoundError("favorite")
	}
	delete(s.favorites, key)
	return nil
}

// UserRepository stores users
type UserRepository struct {
	store *Store
}

func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	return r.list("List", func(*entities.User) bool { return true })
}

func (r *UserRepository) ListWithFavorites(ctx context.Context) ([]*entities.User, error) {
	return r.list("ListWithFavorites", func(u *entities.User) bool { return len(u.FavoriteGameIDs) > 0 })
}

func (r *UserRepository) list(operation string, keep func(*entities.User) bool) ([]*entities.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionUsers, operation, false); err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, len(s.users))
	for _, u := range s.users {
		if keep(u) {
			users = append(users, cloneUser(u))
		}
	}
	byCreated(users, func(u *entities.User) time.Time { return u.CreatedAt }, func(u *entities.User) string { return u.ID })
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionUsers, "GetByID", false); err != nil {
		return nil, err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	return cloneUser(u), nil
}

func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionUsers, "Save", true); err != nil {
		return err
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

// VoteRepository stores daily ballots
type VoteRepository struct {
	store *Store
}

func (r *VoteRepository) ListByDates(ctx context.Context, dates []string) ([]*entities.Vote, error) {
	return r.list("ListByDates", func(v *entities.Vote) bool { return slices.Contains(dates, v.Date) })
}

func (r *VoteRepository) ListBetween(ctx context.Context, startDate, endDate string) ([]*entities.Vote, error) {
	return r.list("ListBetween", func(v *entities.Vote) bool {
		return v.Date >= startDate && v.Date <= endDate
	})
}

func (r *VoteRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entities.Vote, error) {
	votes, err := r.list("ListRecentByUser", func(v *entities.Vote) bool { return v.UserID == userID })
	if err != nil {
		return nil, err
	}
	slices.Reverse(votes)
	if limit > 0 && len(votes) > limit {
		votes = votes[:limit]
	}
	return votes, nil
}

func (r *VoteRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*entities.Vote, error) {
	votes, err := r.list("GetByUserAndDate", func(v *entities.Vote) bool {
		return v.UserID == userID && v.Date == date
	})
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, apperrors.NewNotFoundError("vote")
	}
	return votes[len(votes)-1], nil
}

func (r *VoteRepository) list(operation string, keep func(*entities.Vote) bool) ([]*entities.Vote, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionVotes, operation, false); err != nil {
		return nil, err
	}

	votes := make([]*entities.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		if keep(v) {
			votes = append(votes, cloneVote(v))
		}
	}
	byCreated(votes, func(v *entities.Vote) time.Time { return v.CreatedAt }, func(v *entities.Vote) string { return v.ID })
	return votes, nil
}

func (r *VoteRepository) Save(ctx context.Context, vote *entities.Vote) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionVotes, "Save", true); err != nil {
		return err
	}

	s.votes[vote.ID] = cloneVote(vote)
	return nil
}

// TeamRepository stores teams
type TeamRepository struct {
	store *Store
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*entities.Team, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionTeams, "GetByID", false); err != nil {
		return nil, err
	}

	t, ok := s.teams[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("team")
	}
	return cloneTeam(t), nil
}

func (r *TeamRepository) ListOpen(ctx context.Context, limit int) ([]*entities.Team, error) {
	return r.newest("ListOpen", limit, func(t *entities.Team) bool { return t.IsOpen() })
}

func (r *TeamRepository) ListOpenForGames(ctx context.Context, gameIDs []string, excludeUserID string, limit int) ([]*entities.Team, error) {
	return r.newest("ListOpenForGames", limit, func(t *entities.Team) bool {
		return t.IsOpen() && t.LeaderID != excludeUserID && !t.IsMember(excludeUserID) && slices.Contains(gameIDs, t.GameID)
	})
}

func (r *TeamRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Team, error) {
	return r.list("ListCreatedBetween", func(t *entities.Team) bool {
		return !t.CreatedAt.Before(start) && !t.CreatedAt.After(end)
	})
}

func (r *TeamRepository) newest(operation string, limit int, keep func(*entities.Team) bool) ([]*entities.Team, error) {
	teams, err := r.list(operation, keep)
	if err != nil {
		return nil, err
	}
	slices.Reverse(teams)
	if limit > 0 && len(teams) > limit {
		teams = teams[:limit]
	}
	return teams, nil
}

func (r *TeamRepository) list(operation string, keep func(*entities.Team) bool) ([]*entities.Team, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionTeams, operation, false); err != nil {
		return nil, err
	}

	teams := make([]*entities.Team, 0, len(s.teams))
	for _, t := range s.teams {
		if keep(t) {
			teams = append(teams, cloneTeam(t))
		}
	}
	byCreated(teams, func(t *entities.Team) time.Time { return t.CreatedAt }, func(t *entities.Team) string { return t.ID })
	return teams, nil
}

func (r *TeamRepository) Save(ctx context.Context, team *entities.Team) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionTeams, "Save", true); err != nil {
		return err
	}

	s.teams[team.ID] = cloneTeam(team)
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ports.CollectionTeams, "Delete", false); err != nil {
		return err
	}

	if _, ok := s.teams[id]; !ok {
		return apperrors.NewNotFoundError("team")
	}
	delete(s.teams, id)
	return nil
}
