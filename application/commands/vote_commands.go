package commands

import (
	"context"

	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/core/valueobjects"
	"gamegroup-backend/domain/events"

	"go.uber.org/zap"
)

// PreferenceInput is one game preference of a ballot
type PreferenceInput struct {
	GameID   string `json:"gameId" validate:"required"`
	Tendency int    `json:"tendency" validate:"min=1,max=5"`
}

// SubmitVoteCommand records the user's ballot for a day. An empty Date means today.
type SubmitVoteCommand struct {
	UserID          string            `json:"userId" validate:"required"`
	Date            string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	WantsToPlay     bool              `json:"wantsToPlay"`
	SelectedGameIDs []string          `json:"selectedGameIds" validate:"max=50,dive,required"`
	GamePreferences []PreferenceInput `json:"gamePreferences" validate:"max=50,dive"`
}

// SubmitVote stores a ballot. Earlier ballots for the same day are kept; the
// per-user read returns the latest.
func (h *Handler) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (*entities.Vote, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, err
	}

	now := h.now()
	date := cmd.Date
	if date == "" {
		date = valueobjects.Today(now)
	}

	preferences := make([]entities.GamePreference, 0, len(cmd.GamePreferences))
	for _, p := range cmd.GamePreferences {
		preferences = append(preferences, entities.GamePreference{GameID: p.GameID, Tendency: p.Tendency})
	}

	vote := &entities.Vote{
		ID:              h.newID(),
		Date:            date,
		UserID:          cmd.UserID,
		WantsToPlay:     cmd.WantsToPlay,
		SelectedGameIDs: append([]string{}, cmd.SelectedGameIDs...),
		GamePreferences: preferences,
		CreatedAt:       now,
	}
	if err := h.repos.Votes.Save(ctx, vote); err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewVoteSubmitted(vote.ID, vote.UserID, vote.Date, vote.WantsToPlay, now))
	h.invalidator.InvalidateVoteCaches()

	h.logger.Info("Vote submitted",
		zap.String("voteID", vote.ID),
		zap.String("userID", vote.UserID),
		zap.String("date", vote.Date),
		zap.Int("games", len(vote.SelectedGameIDs)),
	)
	return vote, nil
}
