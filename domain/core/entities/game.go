package entities

import (
	"time"
)

// Game is a catalogue entry. Popularity counters other than likes are derived
// by the analytics layer and never stored on the record.
type Game struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	MinPlayers  int       `json:"minPlayers"`
	MaxPlayers  int       `json:"maxPlayers"`
	OwnerID     string    `json:"ownerId,omitempty"`
	LikeCount   int       `json:"likeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EnhancedGame joins a Game with its derived favorite count and ranking score.
type EnhancedGame struct {
	Game
	FavoriteCount int     `json:"favoriteCount"`
	RankingScore  float64 `json:"rankingScore"`
}

// Favorite links a user to a game in the dedicated favorites collection.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the subset of a user record the analytics core reads.
// FavoriteGameIDs is the legacy embedded favorites list.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	FavoriteGameIDs []string  `json:"favoriteGameIds,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
