package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/core/valueobjects"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRecorder struct {
	mu              sync.Mutex
	reports         map[string]int
	failedReports   map[string]int
	recommendations map[string]int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		reports:         make(map[string]int),
		failedReports:   make(map[string]int),
		recommendations: make(map[string]int),
	}
}

func (r *recordingRecorder) RecordReport(report string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failedReports[report]++
		return
	}
	r.reports[report]++
}

func (r *recordingRecorder) RecordRecommendation(strategy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recommendations[strategy]++
}

func newReports(f *fixture, recorder Recorder) *Reports {
	r := NewReports(f.repos, f.enhancer, nil, recorder, zap.NewNop())
	r.now = func() time.Time { return f.now }
	return r
}

var mar15 = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestReports_FavoriteReport(t *testing.T) {
	// Arrange
	f := newFixture(t, mar15)
	ctx := context.Background()
	f.game(t, "g1", "Catan", 1, mar15.AddDate(0, -6, 0))
	f.game(t, "g2", "Azul", 10, mar15.AddDate(0, -6, 0))
	f.game(t, "g3", "Root", 0, mar15.AddDate(0, -6, 0))
	f.favorite(t, "u1", "g1", mar15.AddDate(0, 0, -2))
	f.favorite(t, "u1", "g3", mar15.AddDate(0, 0, -1))
	f.favorite(t, "u2", "g1", mar15)
	f.favorite(t, "u4", "g2", mar15.AddDate(0, -3, 0))
	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, f.repos.Users.Save(ctx, &entities.User{ID: id}))
	}

	recorder := newRecordingRecorder()
	reports := newReports(f, recorder)
	rng := valueobjects.TimeRange{Start: mar15.AddDate(0, -1, 0), End: mar15}

	// Act
	report, err := reports.FavoriteReport(ctx, rng)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalFavorites)
	assert.Equal(t, 2, report.UsersWithFavorites)

	require.Len(t, report.TopGames, 3)
	assert.Equal(t, "g2", report.TopGames[0].GameID)
	assert.Equal(t, 10, report.TopGames[0].HotScore)
	assert.Equal(t, "g1", report.TopGames[1].GameID)
	assert.Equal(t, 5, report.TopGames[1].HotScore)
	assert.Equal(t, "Catan", report.TopGames[1].GameName)
	assert.Equal(t, "g3", report.TopGames[2].GameID)
	assert.Equal(t, 2, report.TopGames[2].HotScore)

	buckets := make(map[string]int)
	for _, b := range report.UserDistribution {
		buckets[b.Label] = b.Users
	}
	assert.Equal(t, map[string]int{"0": 1, "1-5": 2, "6-10": 0, "11-20": 0, "20+": 0}, buckets)

	require.Len(t, report.DailyTrend, favoriteTrendDays)
	assert.Equal(t, "2024-03-15", report.DailyTrend[len(report.DailyTrend)-1].Date)
	total := 0
	for _, d := range report.DailyTrend {
		total += d.Count
	}
	assert.Equal(t, 3, total)

	assert.Equal(t, 1, recorder.reports["favorites"])
}

func TestReports_FavoriteReportTopGamesBounded(t *testing.T) {
	f := newFixture(t, mar15)
	for i := 0; i < 12; i++ {
		f.game(t, fmt.Sprintf("g%02d", i), "", i, mar15)
	}

	report, err := newReports(f, nil).FavoriteReport(context.Background(), valueobjects.TimeRange{Start: mar15.AddDate(0, 0, -7), End: mar15})

	require.NoError(t, err)
	require.Len(t, report.TopGames, reportTopN)
	assert.Equal(t, "g11", report.TopGames[0].GameID)
	for i := 1; i < len(report.TopGames); i++ {
		assert.GreaterOrEqual(t, report.TopGames[i-1].HotScore, report.TopGames[i].HotScore)
	}
}

func TestReports_FavoriteReportPropagatesForbidden(t *testing.T) {
	f := newFixture(t, mar15)
	f.store.FailWith(ports.CollectionFavorites, apperrors.NewForbiddenError(""))
	recorder := newRecordingRecorder()

	_, err := newReports(f, recorder).FavoriteReport(context.Background(), valueobjects.TimeRange{Start: mar15.AddDate(0, 0, -7), End: mar15})

	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, 1, recorder.failedReports["favorites"])
}

func TestReports_VoteReport(t *testing.T) {
	// Arrange
	f := newFixture(t, mar15)
	f.game(t, "g1", "Catan", 0, mar15)
	f.game(t, "g2", "Azul", 0, mar15)
	f.vote(t, &entities.Vote{
		ID: "v1", Date: "2024-01-01", UserID: "u1", WantsToPlay: true,
		SelectedGameIDs: []string{"g1"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 5}},
	})
	f.vote(t, &entities.Vote{
		ID: "v2", Date: "2024-01-01", UserID: "u2",
		SelectedGameIDs: []string{"g1", "g2"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 3}},
	})
	f.vote(t, &entities.Vote{
		ID: "v3", Date: "2024-01-03", UserID: "u1", WantsToPlay: true,
		SelectedGameIDs: []string{"g1"},
		GamePreferences: []entities.GamePreference{{GameID: "g1", Tendency: 4}},
	})
	f.vote(t, &entities.Vote{ID: "v4", Date: "2024-01-05", UserID: "u3", SelectedGameIDs: []string{"g2"}})

	rng := valueobjects.TimeRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC),
	}

	// Act
	report, err := newReports(f, nil).VoteReport(context.Background(), rng)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalVotes)
	assert.Equal(t, 2, report.UniqueVoters)

	require.Len(t, report.DailyParticipation, 3)
	assert.Equal(t, DailyParticipation{Date: "2024-01-01", TotalVotes: 2, WantToPlayCount: 1, ParticipationRate: 0.5}, report.DailyParticipation[0])
	assert.Equal(t, DailyParticipation{Date: "2024-01-02"}, report.DailyParticipation[1])
	assert.Equal(t, 1.0, report.DailyParticipation[2].ParticipationRate)

	require.Len(t, report.TopGames, 2)
	assert.Equal(t, GameVoteSummary{GameID: "g1", GameName: "Catan", VoteCount: 3, AverageTendency: 4, UniqueDays: 2}, report.TopGames[0])
	assert.Equal(t, "g2", report.TopGames[1].GameID)
	assert.Equal(t, "Azul", report.TopGames[1].GameName)

	require.Len(t, report.TopUsers, 2)
	assert.Equal(t, UserActivity{UserID: "u1", VoteDays: 2, TotalVotes: 2, AverageTendency: 4.5}, report.TopUsers[0])
	assert.Equal(t, "u2", report.TopUsers[1].UserID)

	assert.Equal(t, 1, f.store.Calls(ports.CollectionGames, "GetByIDs"))
}

func TestReports_VoteReportMissingCollection(t *testing.T) {
	f := newFixture(t, mar15)
	f.store.DropCollection(ports.CollectionVotes)

	report, err := newReports(f, nil).VoteReport(context.Background(), valueobjects.TimeRange{Start: mar15.AddDate(0, 0, -6), End: mar15})

	require.NoError(t, err)
	assert.Zero(t, report.TotalVotes)
	assert.Len(t, report.DailyParticipation, 7)
	assert.Empty(t, report.TopGames)
	assert.Empty(t, report.TopUsers)
}

func TestReports_TeamReport(t *testing.T) {
	// Arrange
	f := newFixture(t, mar15)
	f.game(t, "g1", "Catan", 0, mar15)
	monday := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	f.team(t, &entities.Team{
		ID: "t1", GameID: "g1", LeaderID: "a", Members: []string{"a", "b", "c", "d"}, MaxMembers: 4,
		Status: entities.TeamStatusFull, StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), CreatedAt: monday,
	})
	f.team(t, &entities.Team{
		ID: "t2", GameID: "g1", LeaderID: "e", Members: []string{"e", "f"}, MaxMembers: 4,
		Status: entities.TeamStatusCompleted, StartTime: time.Date(2024, 1, 3, 19, 0, 0, 0, time.UTC), CreatedAt: monday.AddDate(0, 0, 2),
	})
	f.team(t, &entities.Team{
		ID: "t3", GameID: "g2", LeaderID: "g", Members: []string{"g"}, MaxMembers: 3,
		Status: entities.TeamStatusOpen, StartTime: time.Date(2024, 1, 9, 7, 0, 0, 0, time.UTC), CreatedAt: monday.AddDate(0, 0, 8),
	})
	f.team(t, &entities.Team{
		ID: "t4", GameID: "g1", LeaderID: "h", Members: []string{"h"}, MaxMembers: 3,
		Status: entities.TeamStatusOpen, CreatedAt: monday.AddDate(0, 2, 0),
	})
	rng := valueobjects.TimeRange{Start: monday.AddDate(0, 0, -1), End: monday.AddDate(0, 0, 14)}

	// Act
	report, err := newReports(f, nil).TeamReport(context.Background(), rng)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalTeams)
	assert.Equal(t, 7, report.TotalParticipants)
	assert.InDelta(t, 7.0/3.0, report.AverageTeamSize, 1e-9)
	assert.InDelta(t, 1.0/3.0, report.CompletionRate, 1e-9)

	require.Len(t, report.GamePopularity, 2)
	assert.Equal(t, GamePopularity{GameID: "g1", GameName: "Catan", TeamCount: 2, TotalParticipants: 6, AverageTeamSize: 3}, report.GamePopularity[0])
	assert.Equal(t, "g2", report.GamePopularity[1].GameID)
	assert.Equal(t, "", report.GamePopularity[1].GameName)

	slots := make(map[string]int)
	for _, s := range report.TimeSlots {
		slots[s.Label] = s.TeamCount
	}
	assert.Equal(t, map[string]int{"09-12": 1, "12-15": 0, "15-18": 0, "18-21": 1, "21-24": 0}, slots)

	require.Len(t, report.WeeklyTrend, 2)
	assert.Equal(t, WeeklyTeams{WeekStart: "2024-01-01", TeamCount: 2, ParticipantCount: 6}, report.WeeklyTrend[0])
	assert.Equal(t, WeeklyTeams{WeekStart: "2024-01-08", TeamCount: 1, ParticipantCount: 1}, report.WeeklyTrend[1])

	participants := 0
	for _, w := range report.WeeklyTrend {
		participants += w.ParticipantCount
	}
	assert.Equal(t, report.TotalParticipants, participants)
}

func TestReports_TeamReportEmpty(t *testing.T) {
	f := newFixture(t, mar15)
	f.store.DropCollection(ports.CollectionTeams)

	report, err := newReports(f, nil).TeamReport(context.Background(), valueobjects.TimeRange{Start: mar15.AddDate(0, 0, -7), End: mar15})

	require.NoError(t, err)
	assert.Zero(t, report.TotalTeams)
	assert.Zero(t, report.AverageTeamSize)
	assert.Zero(t, report.CompletionRate)
	assert.Len(t, report.TimeSlots, 5)
	assert.Empty(t, report.WeeklyTrend)
	assert.Equal(t, 0, f.store.Calls(ports.CollectionGames, "GetByIDs"))
}
