package services

import (
	"context"
	"sort"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/core/valueobjects"
	"gamegroup-backend/domain/scoring"
	apperrors "gamegroup-backend/pkg/errors"
	"gamegroup-backend/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	reportTopN        = 10
	favoriteTrendDays = 30
)

// Recorder receives analytics outcomes. The Prometheus collector implements it.
type Recorder interface {
	RecordReport(report string, err error)
	RecordRecommendation(strategy string)
}

type noopRecorder struct{}

func (noopRecorder) RecordReport(string, error)  {}
func (noopRecorder) RecordRecommendation(string) {}

// GameHotness ranks a game in the favorite report
type GameHotness struct {
	GameID        string `json:"gameId"`
	GameName      string `json:"gameName"`
	FavoriteCount int    `json:"favoriteCount"`
	LikeCount     int    `json:"likeCount"`
	HotScore      int    `json:"hotScore"`
}

// DistributionBucket counts users whose favorite count falls in a range
type DistributionBucket struct {
	Label string `json:"label"`
	Users int    `json:"users"`
}

// DailyCount is one point of a daily trend series
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FavoriteReport summarizes favorites created inside a range
type FavoriteReport struct {
	Range              valueobjects.TimeRange `json:"range"`
	TotalFavorites     int                    `json:"totalFavorites"`
	UsersWithFavorites int                    `json:"usersWithFavorites"`
	TopGames           []GameHotness          `json:"topGames"`
	UserDistribution   []DistributionBucket   `json:"userDistribution"`
	DailyTrend         []DailyCount           `json:"dailyTrend"`
}

// DailyParticipation is one day of the vote report
type DailyParticipation struct {
	Date              string  `json:"date"`
	TotalVotes        int     `json:"totalVotes"`
	WantToPlayCount   int     `json:"wantToPlayCount"`
	ParticipationRate float64 `json:"participationRate"`
}

// GameVoteSummary is a game's voting record over the report range
type GameVoteSummary struct {
	GameID          string  `json:"gameId"`
	GameName        string  `json:"gameName"`
	VoteCount       int     `json:"voteCount"`
	AverageTendency float64 `json:"averageTendency"`
	UniqueDays      int     `json:"uniqueDays"`
}

// UserActivity is a user's voting record over the report range
type UserActivity struct {
	UserID          string  `json:"userId"`
	VoteDays        int     `json:"voteDays"`
	TotalVotes      int     `json:"totalVotes"`
	AverageTendency float64 `json:"averageTendency"`
}

// VoteReport summarizes ballots inside a range
type VoteReport struct {
	Range              valueobjects.TimeRange `json:"range"`
	TotalVotes         int                    `json:"totalVotes"`
	UniqueVoters       int                    `json:"uniqueVoters"`
	DailyParticipation []DailyParticipation   `json:"dailyParticipation"`
	TopGames           []GameVoteSummary      `json:"topGames"`
	TopUsers           []UserActivity         `json:"topUsers"`
}

// GamePopularity aggregates the teams formed around one game
type GamePopularity struct {
	GameID            string  `json:"gameId"`
	GameName          string  `json:"gameName"`
	TeamCount         int     `json:"teamCount"`
	TotalParticipants int     `json:"totalParticipants"`
	AverageTeamSize   float64 `json:"averageTeamSize"`
}

// TimeSlot counts teams starting inside a fixed window of the day
type TimeSlot struct {
	Label     string `json:"label"`
	TeamCount int    `json:"teamCount"`
}

// WeeklyTeams is one week of the team trend, keyed by its Monday
type WeeklyTeams struct {
	WeekStart        string `json:"weekStart"`
	TeamCount        int    `json:"teamCount"`
	ParticipantCount int    `json:"participantCount"`
}

// TeamReport summarizes teams created inside a range
type TeamReport struct {
	Range             valueobjects.TimeRange `json:"range"`
	TotalTeams        int                    `json:"totalTeams"`
	TotalParticipants int                    `json:"totalParticipants"`
	AverageTeamSize   float64                `json:"averageTeamSize"`
	CompletionRate    float64                `json:"completionRate"`
	GamePopularity    []GamePopularity       `json:"gamePopularity"`
	TimeSlots         []TimeSlot             `json:"timeSlots"`
	WeeklyTrend       []WeeklyTeams          `json:"weeklyTrend"`
}

var timeSlots = []struct {
	label    string
	from, to int
}{
	{"09-12", 9, 12},
	{"12-15", 12, 15},
	{"15-18", 15, 18},
	{"18-21", 18, 21},
	{"21-24", 21, 24},
}

var favoriteBuckets = []struct {
	label    string
	min, max int
}{
	{"0", 0, 0},
	{"1-5", 1, 5},
	{"6-10", 6, 10},
	{"11-20", 11, 20},
	{"20+", 21, int(^uint(0) >> 1)},
}

// Reports builds the favorite, vote and team reports
type Reports struct {
	repos    ports.Repositories
	enhancer *Enhancer
	tracer   *observability.Tracer
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewReports creates a new report aggregator
func NewReports(repos ports.Repositories, enhancer *Enhancer, tracer *observability.Tracer, recorder Recorder, logger *zap.Logger) *Reports {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if tracer == nil {
		tracer = observability.NewTracer("gamegroup")
	}
	return &Reports{
		repos:    repos,
		enhancer: enhancer,
		tracer:   tracer,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// build wraps a report build with a span, metrics and error logging
func (r *Reports) build(ctx context.Context, name string, rng valueobjects.TimeRange, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "report."+name,
		attribute.String("range.start", rng.Start.Format(time.RFC3339)),
		attribute.String("range.end", rng.End.Format(time.RFC3339)),
	)
	defer span.End()

	err := fn(ctx)
	r.recorder.RecordReport(name, err)
	if err != nil {
		observability.RecordError(span, err)
		r.logger.Error("Failed to build report", zap.String("report", name), zap.Error(err))
	}
	return err
}

// emptyIfNotFound turns a missing collection into an empty result
func emptyIfNotFound[T any](items []T, err error) ([]T, error) {
	if apperrors.IsNotFound(err) {
		return []T{}, nil
	}
	return items, err
}

// FavoriteReport ranks games by favorites created in rng plus likes, buckets
// users by their favorite count and adds a 30-day creation trend.
func (r *Reports) FavoriteReport(ctx context.Context, rng valueobjects.TimeRange) (*FavoriteReport, error) {
	var report *FavoriteReport
	err := r.build(ctx, "favorites", rng, func(ctx context.Context) error {
		now := r.now().In(valueobjects.Calendar)
		trendDays := valueobjects.LastNDays(now, favoriteTrendDays)
		trendStart, _ := valueobjects.ParseDate(trendDays[0], now.Location())

		var (
			inRange []*entities.Favorite
			recent  []*entities.Favorite
			games   []entities.EnhancedGame
			users   []*entities.User
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			inRange, err = emptyIfNotFound(r.repos.Favorites.ListCreatedBetween(gctx, rng.Start, rng.End))
			return err
		})
		g.Go(func() (err error) {
			recent, err = emptyIfNotFound(r.repos.Favorites.ListCreatedBetween(gctx, trendStart, now))
			return err
		})
		g.Go(func() (err error) {
			games, err = r.enhancer.GetEnhancedGames(gctx, nil)
			return err
		})
		g.Go(func() (err error) {
			users, err = emptyIfNotFound(r.repos.Users.List(gctx))
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		report = buildFavoriteReport(rng, inRange, recent, games, users, trendDays, now.Location())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildFavoriteReport(rng valueobjects.TimeRange, inRange, recent []*entities.Favorite, games []entities.EnhancedGame, users []*entities.User, trendDays []string, loc *time.Location) *FavoriteReport {
	perGame := make(map[string]int)
	perUser := make(map[string]int)
	for _, u := range users {
		perUser[u.ID] = 0
	}
	for _, f := range inRange {
		perGame[f.GameID]++
		if f.UserID != "" {
			perUser[f.UserID]++
		}
	}

	top := make([]GameHotness, 0, len(games))
	for _, game := range games {
		favorites := perGame[game.ID]
		top = append(top, GameHotness{
			GameID:        game.ID,
			GameName:      game.Name,
			FavoriteCount: favorites,
			LikeCount:     game.LikeCount,
			HotScore:      scoring.ReportHotScore(favorites, game.LikeCount),
		})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].HotScore > top[j].HotScore })
	if len(top) > reportTopN {
		top = top[:reportTopN]
	}

	distribution := make([]DistributionBucket, len(favoriteBuckets))
	for i, b := range favoriteBuckets {
		distribution[i].Label = b.label
	}
	withFavorites := 0
	for _, n := range perUser {
		if n > 0 {
			withFavorites++
		}
		for i, b := range favoriteBuckets {
			if n >= b.min && n <= b.max {
				distribution[i].Users++
				break
			}
		}
	}

	daily := make(map[string]int, len(trendDays))
	for _, f := range recent {
		daily[valueobjects.DateKey(f.CreatedAt.In(loc))]++
	}
	trend := make([]DailyCount, 0, len(trendDays))
	for _, d := range trendDays {
		trend = append(trend, DailyCount{Date: d, Count: daily[d]})
	}

	return &FavoriteReport{
		Range:              rng,
		TotalFavorites:     len(inRange),
		UsersWithFavorites: withFavorites,
		TopGames:           top,
		UserDistribution:   distribution,
		DailyTrend:         trend,
	}
}

// VoteReport builds the daily participation series and the most voted games
// and most active users for rng.
func (r *Reports) VoteReport(ctx context.Context, rng valueobjects.TimeRange) (*VoteReport, error) {
	var report *VoteReport
	err := r.build(ctx, "votes", rng, func(ctx context.Context) error {
		loc := valueobjects.Calendar
		start, end := rng.Start.In(loc), rng.End.In(loc)

		votes, err := emptyIfNotFound(r.repos.Votes.ListBetween(ctx, valueobjects.DateKey(start), valueobjects.DateKey(end)))
		if err != nil {
			return err
		}

		report = aggregateVotes(rng, valueobjects.DaysBetween(start, end), votes)

		ids := make([]string, 0, len(report.TopGames))
		for _, g := range report.TopGames {
			ids = append(ids, g.GameID)
		}
		names, err := r.enhancer.gameNames(ctx, ids)
		if err != nil {
			return err
		}
		for i := range report.TopGames {
			report.TopGames[i].GameName = names[report.TopGames[i].GameID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

type gameVoteTally struct {
	votes         int
	tendencySum   int
	tendencyCount int
	days          map[string]struct{}
}

type userVoteTally struct {
	votes         int
	tendencySum   int
	tendencyCount int
	days          map[string]struct{}
}

func aggregateVotes(rng valueobjects.TimeRange, days []string, votes []*entities.Vote) *VoteReport {
	type dayCount struct{ total, want int }
	perDay := make(map[string]*dayCount, len(days))
	for _, d := range days {
		perDay[d] = &dayCount{}
	}

	games := make(map[string]*gameVoteTally)
	var gameOrder []string
	gameTally := func(id string) *gameVoteTally {
		t, ok := games[id]
		if !ok {
			t = &gameVoteTally{days: make(map[string]struct{})}
			games[id] = t
			gameOrder = append(gameOrder, id)
		}
		return t
	}

	users := make(map[string]*userVoteTally)
	var userOrder []string

	total := 0
	for _, v := range votes {
		day, ok := perDay[v.Date]
		if !ok {
			continue
		}
		total++
		day.total++
		if v.WantsToPlay {
			day.want++
		}

		for _, id := range v.SelectedGames() {
			t := gameTally(id)
			t.votes++
			t.days[v.Date] = struct{}{}
		}
		preferences := v.ValidPreferences()
		for _, p := range preferences {
			t := gameTally(p.GameID)
			t.tendencySum += p.Tendency
			t.tendencyCount++
		}

		if v.UserID == "" {
			continue
		}
		u, ok := users[v.UserID]
		if !ok {
			u = &userVoteTally{days: make(map[string]struct{})}
			users[v.UserID] = u
			userOrder = append(userOrder, v.UserID)
		}
		u.votes++
		u.days[v.Date] = struct{}{}
		for _, p := range preferences {
			u.tendencySum += p.Tendency
			u.tendencyCount++
		}
	}

	daily := make([]DailyParticipation, 0, len(days))
	for _, d := range days {
		c := perDay[d]
		rate := 0.0
		if c.total > 0 {
			rate = float64(c.want) / float64(c.total)
		}
		daily = append(daily, DailyParticipation{
			Date:              d,
			TotalVotes:        c.total,
			WantToPlayCount:   c.want,
			ParticipationRate: rate,
		})
	}

	topGames := make([]GameVoteSummary, 0, len(gameOrder))
	for _, id := range gameOrder {
		t := games[id]
		if t.votes == 0 {
			continue
		}
		topGames = append(topGames, GameVoteSummary{
			GameID:          id,
			VoteCount:       t.votes,
			AverageTendency: average(t.tendencySum, t.tendencyCount),
			UniqueDays:      len(t.days),
		})
	}
	sort.SliceStable(topGames, func(i, j int) bool { return topGames[i].VoteCount > topGames[j].VoteCount })
	if len(topGames) > reportTopN {
		topGames = topGames[:reportTopN]
	}

	topUsers := make([]UserActivity, 0, len(userOrder))
	for _, id := range userOrder {
		u := users[id]
		topUsers = append(topUsers, UserActivity{
			UserID:          id,
			VoteDays:        len(u.days),
			TotalVotes:      u.votes,
			AverageTendency: average(u.tendencySum, u.tendencyCount),
		})
	}
	sort.SliceStable(topUsers, func(i, j int) bool { return topUsers[i].VoteDays > topUsers[j].VoteDays })
	if len(topUsers) > reportTopN {
		topUsers = topUsers[:reportTopN]
	}

	return &VoteReport{
		Range:              rng,
		TotalVotes:         total,
		UniqueVoters:       len(users),
		DailyParticipation: daily,
		TopGames:           topGames,
		TopUsers:           topUsers,
	}
}

func average(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// TeamReport aggregates team sizes, per-game popularity, start-time slots and
// a weekly trend for teams created in rng.
func (r *Reports) TeamReport(ctx context.Context, rng valueobjects.TimeRange) (*TeamReport, error) {
	var report *TeamReport
	err := r.build(ctx, "teams", rng, func(ctx context.Context) error {
		teams, err := emptyIfNotFound(r.repos.Teams.ListCreatedBetween(ctx, rng.Start, rng.End))
		if err != nil {
			return err
		}

		report = aggregateTeams(rng, teams, valueobjects.Calendar)

		ids := make([]string, 0, len(report.GamePopularity))
		for _, p := range report.GamePopularity {
			ids = append(ids, p.GameID)
		}
		names, err := r.enhancer.gameNames(ctx, ids)
		if err != nil {
			return err
		}
		for i := range report.GamePopularity {
			report.GamePopularity[i].GameName = names[report.GamePopularity[i].GameID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func aggregateTeams(rng valueobjects.TimeRange, teams []*entities.Team, loc *time.Location) *TeamReport {
	report := &TeamReport{
		Range:          rng,
		TotalTeams:     len(teams),
		GamePopularity: []GamePopularity{},
		TimeSlots:      make([]TimeSlot, len(timeSlots)),
		WeeklyTrend:    []WeeklyTeams{},
	}
	for i, s := range timeSlots {
		report.TimeSlots[i].Label = s.label
	}

	popularity := make(map[string]*GamePopularity)
	var gameOrder []string
	weekly := make(map[string]*WeeklyTeams)
	completed := 0

	for _, t := range teams {
		size := t.MemberCount()
		report.TotalParticipants += size
		if t.Status == entities.TeamStatusCompleted {
			completed++
		}

		p, ok := popularity[t.GameID]
		if !ok {
			p = &GamePopularity{GameID: t.GameID}
			popularity[t.GameID] = p
			gameOrder = append(gameOrder, t.GameID)
		}
		p.TeamCount++
		p.TotalParticipants += size

		start := t.StartTime
		if start.IsZero() {
			start = t.CreatedAt
		}
		hour := start.In(loc).Hour()
		for i, s := range timeSlots {
			if hour >= s.from && hour < s.to {
				report.TimeSlots[i].TeamCount++
				break
			}
		}

		week := valueobjects.DateKey(valueobjects.WeekStart(t.CreatedAt.In(loc)))
		w, ok := weekly[week]
		if !ok {
			w = &WeeklyTeams{WeekStart: week}
			weekly[week] = w
		}
		w.TeamCount++
		w.ParticipantCount += size
	}

	if report.TotalTeams > 0 {
		report.AverageTeamSize = float64(report.TotalParticipants) / float64(report.TotalTeams)
		report.CompletionRate = float64(completed) / float64(report.TotalTeams)
	}

	for _, id := range gameOrder {
		p := popularity[id]
		p.AverageTeamSize = float64(p.TotalParticipants) / float64(p.TeamCount)
		report.GamePopularity = append(report.GamePopularity, *p)
	}
	sort.SliceStable(report.GamePopularity, func(i, j int) bool {
		return report.GamePopularity[i].TeamCount > report.GamePopularity[j].TeamCount
	})

	for _, w := range weekly {
		report.WeeklyTrend = append(report.WeeklyTrend, *w)
	}
	sort.Slice(report.WeeklyTrend, func(i, j int) bool {
		return report.WeeklyTrend[i].WeekStart < report.WeeklyTrend[j].WeekStart
	})

	return report
}
