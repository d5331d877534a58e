// Package memory implements the record store ports in process memory. It
// backs local development and the service tests, and can simulate a
// collection that does not exist yet or a store that rejects requests.
package memory

import (
	"sync"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"
)

// Store holds every collection behind one lock.
type Store struct {
	mu sync.RWMutex

	games     map[string]*entities.Game
	favorites map[string]*entities.Favorite
	users     map[string]*entities.User
	votes     map[string]*entities.Vote
	teams     map[string]*entities.Team

	missing  map[string]bool
	failures map[string]error
	calls    map[string]int
}

// NewStore creates a store where every collection exists and is empty.
func NewStore() *Store {
	return &Store{
		games:     make(map[string]*entities.Game),
		favorites: make(map[string]*entities.Favorite),
		users:     make(map[string]*entities.User),
		votes:     make(map[string]*entities.Vote),
		teams:     make(map[string]*entities.Team),
		missing:   make(map[string]bool),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Repositories returns one repository per collection, all sharing this store.
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Games:     &GameRepository{store: s},
		Favorites: &FavoriteRepository{store: s},
		Users:     &UserRepository{store: s},
		Votes:     &VoteRepository{store: s},
		Teams:     &TeamRepository{store: s},
	}
}

// DropCollection makes every read of collection fail with a collection
// NOT_FOUND error until something is saved into it again.
func (s *Store) DropCollection(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing[collection] = true
}

// FailWith makes every operation on collection return err. A nil err clears
// the failure.
func (s *Store) FailWith(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = err
}

// Calls returns how many times operation ran against collection.
func (s *Store) Calls(collection, operation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[collection+"."+operation]
}

// ResetCalls zeroes the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// begin records the call and reports injected failures. Must hold s.mu.
func (s *Store) begin(collection, operation string, write bool) error {
	s.calls[collection+"."+operation]++
	if err, ok := s.failures[collection]; ok {
		return err
	}
	if s.missing[collection] {
		if write {
			delete(s.missing, collection)
			s.reset(collection)
			return nil
		}
		return apperrors.NewCollectionNotFoundError(collection)
	}
	return nil
}

func (s *Store) reset(collection string) {
	switch collection {
	case ports.CollectionGames:
		s.games = make(map[string]*entities.Game)
	case ports.CollectionFavorites:
		s.favorites = make(map[string]*entities.Favorite)
	case ports.CollectionUsers:
		s.users = make(map[string]*entities.User)
	case ports.CollectionVotes:
		s.votes = make(map[string]*entities.Vote)
	case ports.CollectionTeams:
		s.teams = make(map[string]*entities.Team)
	}
}

func cloneGame(g *entities.Game) *entities.Game {
	c := *g
	return &c
}

func cloneFavorite(f *entities.Favorite) *entities.Favorite {
	c := *f
	return &c
}

func cloneUser(u *entities.User) *entities.User {
	c := *u
	c.FavoriteGameIDs = append([]string(nil), u.FavoriteGameIDs...)
	return &c
}

func cloneVote(v *entities.Vote) *entities.Vote {
	c := *v
	c.SelectedGameIDs = append([]string(nil), v.SelectedGameIDs...)
	c.GamePreferences = append([]entities.GamePreference(nil), v.GamePreferences...)
	return &c
}

func cloneTeam(t *entities.Team) *entities.Team {
	c := *t
	c.Members = append([]string(nil), t.Members...)
	return &c
}
