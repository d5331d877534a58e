package entities

import (
	"maps"
	"slices"
	"time"
)

// Tendency bounds for a game preference.
const (
	MinTendency     = 1
	MaxTendency     = 5
	DefaultTendency = 3
)

// GamePreference is a user's 1..5 preference strength for one game.
type GamePreference struct {
	GameID   string `json:"gameId"`
	Tendency int    `json:"tendency"`
}

// Vote is one user's daily ballot. Duplicates for the same user and date are
// possible upstream; every record counts as an independent ballot.
type Vote struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	UserID          string           `json:"userId"`
	WantsToPlay     bool             `json:"wantsToPlay"`
	SelectedGameIDs []string         `json:"selectedGameIds"`
	GamePreferences []GamePreference `json:"gamePreferences"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Clone returns a copy sharing no slices with v.
func (v *Vote) Clone() *Vote {
	if v == nil {
		return nil
	}
	out := *v
	out.SelectedGameIDs = slices.Clone(v.SelectedGameIDs)
	out.GamePreferences = slices.Clone(v.GamePreferences)
	return &out
}

// SelectedGames returns the distinct selected game ids in submission order.
func (v *Vote) SelectedGames() []string {
	seen := make(map[string]struct{}, len(v.SelectedGameIDs))
	out := make([]string, 0, len(v.SelectedGameIDs))
	for _, id := range v.SelectedGameIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ValidPreferences returns preferences with a game id and a tendency in range.
func (v *Vote) ValidPreferences() []GamePreference {
	out := make([]GamePreference, 0, len(v.GamePreferences))
	for _, p := range v.GamePreferences {
		if p.GameID == "" || p.Tendency < MinTendency || p.Tendency > MaxTendency {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DayStats aggregates all ballots submitted for one date.
type DayStats struct {
	Date            string                   `json:"date"`
	TotalVotes      int                      `json:"totalVotes"`
	WantToPlayCount int                      `json:"wantToPlayCount"`
	GameVoteCounts  map[string]int           `json:"gameVoteCounts"`
	TopGames        []TopGame                `json:"topGames"`
	GameTendencies  map[string]TendencyStats `json:"gameTendencies"`
}

// Clone returns a copy sharing no maps or slices with s.
func (s *DayStats) Clone() *DayStats {
	if s == nil {
		return nil
	}
	out := *s
	out.GameVoteCounts = maps.Clone(s.GameVoteCounts)
	out.TopGames = slices.Clone(s.TopGames)
	out.GameTendencies = maps.Clone(s.GameTendencies)
	return &out
}

// TopGame is one entry of a day's most voted games.
type TopGame struct {
	GameID          string  `json:"gameId"`
	GameName        string  `json:"gameName"`
	VoteCount       int     `json:"voteCount"`
	AverageTendency float64 `json:"averageTendency"`
}

// TendencyStats is the mean tendency submitted for a game.
type TendencyStats struct {
	AverageTendency float64 `json:"averageTendency"`
	TendencyCount   int     `json:"tendencyCount"`
}
