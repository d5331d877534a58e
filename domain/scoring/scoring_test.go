package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRankingScore_NewGame(t *testing.T) {
	score := RankingScore(10, 0, now, now)

	assert.InDelta(t, 7.2, score, 1e-9)
}

func TestRankingScore_RecencyDecay(t *testing.T) {
	fresh := RankingScore(10, 5, now, now)
	halfway := RankingScore(10, 5, now.Add(-15*24*time.Hour), now)
	stale := RankingScore(10, 5, now.Add(-30*24*time.Hour), now)
	ancient := RankingScore(10, 5, now.Add(-300*24*time.Hour), now)

	base := 10*0.6 + 5*0.4
	assert.InDelta(t, base*1.2, fresh, 1e-9)
	assert.InDelta(t, base*1.1, halfway, 1e-9)
	assert.InDelta(t, base, stale, 1e-9)
	assert.InDelta(t, base, ancient, 1e-9)
}

func TestRankingScore_Monotonic(t *testing.T) {
	created := now.Add(-72 * time.Hour)
	for likes := 0; likes < 20; likes++ {
		for favs := 0; favs < 20; favs++ {
			s := RankingScore(likes, favs, created, now)
			assert.GreaterOrEqual(t, RankingScore(likes+1, favs, created, now), s)
			assert.GreaterOrEqual(t, RankingScore(likes, favs+1, created, now), s)
		}
	}
}

func TestReportHotScore(t *testing.T) {
	assert.Equal(t, 7, ReportHotScore(3, 1))
	assert.Equal(t, 0, ReportHotScore(0, 0))
}

func TestGamePreferenceScore(t *testing.T) {
	assert.InDelta(t, 0.7*4+0.3*5, GamePreferenceScore(4, 15), 1e-9)
	assert.InDelta(t, 0.7*3+0.3*1, GamePreferenceScore(3, 3), 1e-9)
}

func TestFreshnessScore(t *testing.T) {
	assert.InDelta(t, 5, FreshnessScore(now, now), 1e-9)
	assert.InDelta(t, 4, FreshnessScore(now.Add(-24*time.Hour), now), 1e-9)
	assert.InDelta(t, 0, FreshnessScore(now.Add(-5*24*time.Hour), now), 1e-9)
	assert.InDelta(t, 0, FreshnessScore(now.Add(-9*24*time.Hour), now), 1e-9)
	assert.InDelta(t, 5, FreshnessScore(now.Add(time.Hour), now), 1e-9)
}

func TestTeamScore_VacancyStrictlyIncreases(t *testing.T) {
	full := Components{Tendency: 4, Frequency: 2, Freshness: 3, Vacancy: 0}
	open := full
	open.Vacancy = 0.25

	assert.Greater(t, TeamScore(open), TeamScore(full))
	assert.InDelta(t, 4*0.4+2*0.2+3*0.2, TeamScore(full), 1e-9)
}
