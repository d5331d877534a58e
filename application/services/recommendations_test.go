package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecommender(f *fixture, recorder Recorder) *Recommender {
	r := NewRecommender(f.repos, nil, recorder, zap.NewNop())
	r.now = func() time.Time { return f.now }
	return r
}

func openTeam(id, gameID, leaderID string, members []string, maxMembers int, createdAt time.Time) *entities.Team {
	team := &entities.Team{
		ID:         id,
		GameID:     gameID,
		LeaderID:   leaderID,
		Members:    append([]string{leaderID}, members...),
		MaxMembers: maxMembers,
		StartTime:  createdAt,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	team.RecomputeStatus()
	return team
}

func TestRecommender_RequiresUser(t *testing.T) {
	f := newFixture(t, jan1)

	_, err := newRecommender(f, nil).GetRecommendedTeams(context.Background(), "")

	assert.True(t, apperrors.IsValidation(err))
}

func TestRecommender_NoHistoryReturnsRecentOpenTeams(t *testing.T) {
	// Arrange
	f := newFixture(t, jan1)
	for i := 0; i < 7; i++ {
		f.team(t, openTeam(fmt.Sprintf("t%d", i), "g1", fmt.Sprintf("l%d", i), nil, 4, jan1.Add(time.Duration(i)*time.Hour)))
	}
	f.team(t, openTeam("full", "g1", "x", []string{"y"}, 2, jan1.Add(24*time.Hour)))
	recorder := newRecordingRecorder()

	// Act
	candidates, err := newRecommender(f, recorder).GetRecommendedTeams(context.Background(), "u1")

	// Assert
	require.NoError(t, err)
	require.Len(t, candidates, recommendationLimit)
	assert.Equal(t, "t6", candidates[0].TeamID)
	for _, c := range candidates {
		assert.Zero(t, c.Score)
		assert.NotEqual(t, "full", c.TeamID)
		assert.NotNil(t, c.Team)
	}
	assert.Equal(t, 1, recorder.recommendations[strategyRecent])
}

func TestRecommender_MissingVotesCollectionFallsBackToRecent(t *testing.T) {
	f := newFixture(t, jan1)
	f.team(t, openTeam("t1", "g1", "l1", nil, 4, jan1))
	f.store.DropCollection(ports.CollectionVotes)

	candidates, err := newRecommender(f, nil).GetRecommendedTeams(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "t1", candidates[0].TeamID)
}

func TestRecommender_PersonalizedScores(t *testing.T) {
	// Arrange
	f := newFixture(t, jan1)
	f.vote(t, &entities.Vote{
		ID: "v1", Date: "2024-01-01", UserID: "u1",
		SelectedGameIDs: []string{"g1"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 5}},
	})
	f.vote(t, &entities.Vote{ID: "v2", Date: "2023-12-31", UserID: "u1", SelectedGameIDs: []string{"g2"}})

	f.team(t, openTeam("tA", "g1", "u2", nil, 4, jan1))
	f.team(t, openTeam("tB", "g2", "u3", []string{"u4"}, 4, jan1.Add(-48*time.Hour)))
	f.team(t, openTeam("own", "g1", "u1", nil, 4, jan1))
	f.team(t, openTeam("member", "g1", "u5", []string{"u1"}, 4, jan1))
	f.team(t, openTeam("other", "g3", "u6", nil, 4, jan1))
	recorder := newRecordingRecorder()

	// Act
	candidates, err := newRecommender(f, recorder).GetRecommendedTeams(context.Background(), "u1")

	// Assert
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "tA", first.TeamID)
	assert.InDelta(t, 5.0, first.Components.Tendency, 1e-9)
	assert.InDelta(t, 1.0/3.0, first.Components.Frequency, 1e-9)
	assert.InDelta(t, 5.0, first.Components.Freshness, 1e-9)
	assert.InDelta(t, 0.75, first.Components.Vacancy, 1e-9)
	assert.InDelta(t, 2+1.0/15.0+1+0.75, first.Score, 1e-9)

	second := candidates[1]
	assert.Equal(t, "tB", second.TeamID)
	assert.InDelta(t, 3.0, second.Components.Tendency, 1e-9)
	assert.InDelta(t, 3.0, second.Components.Freshness, 1e-9)
	assert.InDelta(t, 0.5, second.Components.Vacancy, 1e-9)
	assert.InDelta(t, 1.2+1.0/15.0+0.6+0.5, second.Score, 1e-9)

	assert.Equal(t, 1, recorder.recommendations[strategyPersonalized])
}

func TestRecommender_TopFiveSortedWithBoundedVacancy(t *testing.T) {
	f := newFixture(t, jan1)
	f.vote(t, &entities.Vote{ID: "v1", Date: "2024-01-01", UserID: "u1", SelectedGameIDs: []string{"g1"}})
	for i := 0; i < 8; i++ {
		created := jan1.Add(-time.Duration(i*12) * time.Hour)
		f.team(t, openTeam(fmt.Sprintf("t%d", i), "g1", fmt.Sprintf("l%d", i), nil, 2+i, created))
	}

	candidates, err := newRecommender(f, nil).GetRecommendedTeams(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, candidates, recommendationLimit)
	for i, c := range candidates {
		assert.GreaterOrEqual(t, c.Components.Vacancy, 0.0)
		assert.LessOrEqual(t, c.Components.Vacancy, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, candidates[i-1].Score, c.Score)
		}
	}
}

func TestRecommender_JoinedTeamsDoNotCrowdOutCandidates(t *testing.T) {
	f := newFixture(t, jan1)
	f.vote(t, &entities.Vote{ID: "v1", Date: "2024-01-01", UserID: "u1", SelectedGameIDs: []string{"g1"}})
	f.team(t, openTeam("eligible", "g1", "u9", nil, 4, jan1.Add(-72*time.Hour)))
	for i := 0; i < candidateTeamLimit+5; i++ {
		f.team(t, openTeam(fmt.Sprintf("joined-%02d", i), "g1", fmt.Sprintf("l%d", i), []string{"u1"}, 4, jan1.Add(-time.Duration(i)*time.Minute)))
	}

	candidates, err := newRecommender(f, nil).GetRecommendedTeams(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "eligible", candidates[0].TeamID)
}

func TestCollectPreferences(t *testing.T) {
	votes := []*entities.Vote{
		{SelectedGameIDs: []string{"g1", "g2"}, GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 5}}},
		{SelectedGameIDs: []string{"g2"}, GamePreferences: []entities.GamePreference{{GameID: "g3", Tendency: 1}, {GameID: "g4", Tendency: 0}}},
	}

	prefs := collectPreferences(votes)

	require.Len(t, prefs, 3)
	assert.Equal(t, gamePreference{gameID: "g1", count: 1, tendencySum: 5}, prefs[0])
	assert.Equal(t, gamePreference{gameID: "g2", count: 2, tendencySum: 6}, prefs[1])
	assert.Equal(t, gamePreference{gameID: "g3", count: 1, tendencySum: 1}, prefs[2])
}
