// Package scoring holds the popularity and recommendation formulas shared by
// the enhancer, the reports and the recommender.
package scoring

import (
	"math"
	"time"
)

const (
	recencyWindowDays = 30.0
	recencyBoost      = 0.2
	likeWeight        = 0.6
	favoriteWeight    = 0.4

	// HistoryWindow is the number of recent votes that form a user's preference signal.
	HistoryWindow = 15
	// FreshnessCap is the freshness score of a team created right now.
	FreshnessCap = 5.0
)

// RankingScore is the enhancer's recency-weighted popularity score. Games
// lose the recency boost linearly over 30 days.
func RankingScore(likeCount, favoriteCount int, createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	timeFactor := math.Max(0, recencyWindowDays-days) / recencyWindowDays
	if timeFactor > 1 {
		timeFactor = 1
	}
	base := float64(likeCount)*likeWeight + float64(favoriteCount)*favoriteWeight
	return base * (1 + timeFactor*recencyBoost)
}

// ReportHotScore is the favorite report's ranking weight. It is intentionally
// unrelated to RankingScore.
func ReportHotScore(favoriteCount, likeCount int) int {
	return favoriteCount*2 + likeCount
}

// FrequencyScore maps a preference count onto the 0..5 scale.
func FrequencyScore(count int) float64 {
	return float64(count) / HistoryWindow * 5
}

// GamePreferenceScore ranks a game for a user from its mean tendency and how
// often it appeared in the user's recent votes.
func GamePreferenceScore(averageTendency float64, count int) float64 {
	return 0.7*averageTendency + 0.3*FrequencyScore(count)
}

// FreshnessScore decays from 5 to 0 over the first five days of a team.
func FreshnessScore(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	return math.Min(FreshnessCap, math.Max(0, FreshnessCap-hours/24))
}

// Components is the explainable breakdown of a team recommendation.
type Components struct {
	Tendency  float64 `json:"tendency"`
	Frequency float64 `json:"frequency"`
	Freshness float64 `json:"freshness"`
	Vacancy   float64 `json:"vacancy"`
}

// TeamScore combines the components into the final recommendation score.
func TeamScore(c Components) float64 {
	return c.Tendency*0.4 + c.Frequency*0.2 + c.Freshness*0.2 + c.Vacancy*5*0.2
}
