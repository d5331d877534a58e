package services

import (
	"context"
	"sort"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/scoring"
	apperrors "gamegroup-backend/pkg/errors"
	"gamegroup-backend/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	recommendationLimit  = 5
	preferredGameLimit   = 8
	candidateTeamLimit   = 20
	strategyRecent       = "recent"
	strategyPersonalized = "personalized"
)

// RecommendationCandidate is a scored open team with its score breakdown.
// Components is empty for the recent-teams fallback.
type RecommendationCandidate struct {
	TeamID     string             `json:"teamId"`
	GameID     string             `json:"gameId"`
	Score      float64            `json:"score"`
	Components scoring.Components `json:"components"`
	Team       *entities.Team     `json:"team"`
}

// gamePreference accumulates a user's signal for one game
type gamePreference struct {
	gameID      string
	count       int
	tendencySum int
}

func (p gamePreference) average() float64 {
	return average(p.tendencySum, p.count)
}

// Recommender ranks open teams for a user from their recent ballots
type Recommender struct {
	repos    ports.Repositories
	tracer   *observability.Tracer
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecommender creates a new Recommender
func NewRecommender(repos ports.Repositories, tracer *observability.Tracer, recorder Recorder, logger *zap.Logger) *Recommender {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if tracer == nil {
		tracer = observability.NewTracer("gamegroup")
	}
	return &Recommender{
		repos:    repos,
		tracer:   tracer,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// GetRecommendedTeams returns up to five open teams for userID. Users without
// preference history get the most recent open teams, unscored.
func (r *Recommender) GetRecommendedTeams(ctx context.Context, userID string) ([]RecommendationCandidate, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user is required")
	}

	var candidates []RecommendationCandidate
	err := r.tracer.TraceFunction(ctx, "recommendations", func(ctx context.Context) error {
		votes, err := emptyIfNotFound(r.repos.Votes.ListRecentByUser(ctx, userID, scoring.HistoryWindow))
		if err != nil {
			return err
		}

		preferences := collectPreferences(votes)
		if len(preferences) == 0 {
			candidates, err = r.recentTeams(ctx)
			if err == nil {
				r.recorder.RecordRecommendation(strategyRecent)
			}
			return err
		}

		candidates, err = r.personalized(ctx, userID, preferences)
		if err == nil {
			r.recorder.RecordRecommendation(strategyPersonalized)
		}
		return err
	}, attribute.String("user.id", userID))
	if err != nil {
		r.logger.Error("Failed to build recommendations", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	return candidates, nil
}

func (r *Recommender) recentTeams(ctx context.Context) ([]RecommendationCandidate, error) {
	teams, err := emptyIfNotFound(r.repos.Teams.ListOpen(ctx, recommendationLimit))
	if err != nil {
		return nil, err
	}

	out := make([]RecommendationCandidate, 0, len(teams))
	for _, t := range teams {
		out = append(out, RecommendationCandidate{TeamID: t.ID, GameID: t.GameID, Team: t})
	}
	return out, nil
}

func (r *Recommender) personalized(ctx context.Context, userID string, preferences []gamePreference) ([]RecommendationCandidate, error) {
	sort.SliceStable(preferences, func(i, j int) bool {
		return scoring.GamePreferenceScore(preferences[i].average(), preferences[i].count) >
			scoring.GamePreferenceScore(preferences[j].average(), preferences[j].count)
	})
	if len(preferences) > preferredGameLimit {
		preferences = preferences[:preferredGameLimit]
	}

	byGame := make(map[string]gamePreference, len(preferences))
	gameIDs := make([]string, 0, len(preferences))
	for _, p := range preferences {
		byGame[p.gameID] = p
		gameIDs = append(gameIDs, p.gameID)
	}

	teams, err := emptyIfNotFound(r.repos.Teams.ListOpenForGames(ctx, gameIDs, userID, candidateTeamLimit))
	if err != nil {
		return nil, err
	}

	now := r.now()
	out := make([]RecommendationCandidate, 0, len(teams))
	for _, t := range teams {
		if !t.IsOpen() || t.IsMember(userID) {
			continue
		}
		p := byGame[t.GameID]
		components := scoring.Components{
			Tendency:  p.average(),
			Frequency: scoring.FrequencyScore(p.count),
			Freshness: scoring.FreshnessScore(t.CreatedAt, now),
			Vacancy:   t.VacancyRate(),
		}
		out = append(out, RecommendationCandidate{
			TeamID:     t.ID,
			GameID:     t.GameID,
			Score:      scoring.TeamScore(components),
			Components: components,
			Team:       t,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > recommendationLimit {
		out = out[:recommendationLimit]
	}

	r.logger.Debug("Scored team recommendations",
		zap.String("userID", userID),
		zap.Int("games", len(gameIDs)),
		zap.Int("candidates", len(teams)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

// collectPreferences tallies explicit tendencies plus the default tendency
// for selected games a ballot gave none for. Order is first appearance.
func collectPreferences(votes []*entities.Vote) []gamePreference {
	index := make(map[string]int)
	var out []gamePreference
	add := func(gameID string, tendency int) {
		i, ok := index[gameID]
		if !ok {
			i = len(out)
			index[gameID] = i
			out = append(out, gamePreference{gameID: gameID})
		}
		out[i].count++
		out[i].tendencySum += tendency
	}

	for _, v := range votes {
		explicit := make(map[string]struct{})
		for _, p := range v.ValidPreferences() {
			explicit[p.GameID] = struct{}{}
			add(p.GameID, p.Tendency)
		}
		for _, id := range v.SelectedGames() {
			if _, ok := explicit[id]; !ok {
				add(id, entities.DefaultTendency)
			}
		}
	}
	return out
}
