package commands

import (
	"context"
	"time"

	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/events"

	"go.uber.org/zap"
)

// CreateTeamCommand opens a team for a game led by the caller
type CreateTeamCommand struct {
	UserID     string     `json:"userId" validate:"required"`
	GameID     string     `json:"gameId" validate:"required"`
	MaxMembers int        `json:"maxMembers" validate:"min=2,max=50"`
	StartTime  *time.Time `json:"startTime"`
}

// TeamRef identifies a team acted on by a user
type TeamRef struct {
	TeamID string `json:"teamId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// CreateTeam stores a new open team with the caller as leader
func (h *Handler) CreateTeam(ctx context.Context, cmd CreateTeamCommand) (*entities.Team, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, err
	}
	if _, err := h.repos.Games.GetByID(ctx, cmd.GameID); err != nil {
		return nil, err
	}

	now := h.now()
	var start time.Time
	if cmd.StartTime != nil {
		start = *cmd.StartTime
	}
	team, err := entities.NewTeam(h.newID(), cmd.GameID, cmd.UserID, cmd.MaxMembers, start, now)
	if err != nil {
		return nil, err
	}
	if err := h.repos.Teams.Save(ctx, team); err != nil {
		return nil, err
	}

	h.publishTeam(ctx, events.TypeTeamCreated, team, cmd.UserID, now)
	return team, nil
}

// JoinTeam adds the caller to an open team
func (h *Handler) JoinTeam(ctx context.Context, cmd TeamRef) (*entities.Team, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, err
	}

	team, err := h.repos.Teams.GetByID(ctx, cmd.TeamID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	if err := team.Join(cmd.UserID, now); err != nil {
		return nil, err
	}
	if err := h.repos.Teams.Save(ctx, team); err != nil {
		return nil, err
	}

	h.publishTeam(ctx, events.TypeTeamJoined, team, cmd.UserID, now)
	return team, nil
}

// LeaveTeam removes the caller from a team. When the leader leaves, the team
// is deleted and destroyed is true.
func (h *Handler) LeaveTeam(ctx context.Context, cmd TeamRef) (team *entities.Team, destroyed bool, err error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, false, err
	}

	team, err = h.repos.Teams.GetByID(ctx, cmd.TeamID)
	if err != nil {
		return nil, false, err
	}

	now := h.now()
	destroyed, err = team.Leave(cmd.UserID, now)
	if err != nil {
		return nil, false, err
	}

	if destroyed {
		if err := h.repos.Teams.Delete(ctx, team.ID); err != nil {
			return nil, false, err
		}
		h.publishTeam(ctx, events.TypeTeamDestroyed, team, cmd.UserID, now)
		h.logger.Info("Team destroyed by leader", zap.String("teamID", team.ID), zap.String("userID", cmd.UserID))
		return nil, true, nil
	}

	if err := h.repos.Teams.Save(ctx, team); err != nil {
		return nil, false, err
	}
	h.publishTeam(ctx, events.TypeTeamLeft, team, cmd.UserID, now)
	return team, false, nil
}

func (h *Handler) publishTeam(ctx context.Context, eventType string, team *entities.Team, userID string, now time.Time) {
	h.publish(ctx, events.NewTeamEvent(eventType, team.ID, team.GameID, userID, string(team.Status), team.MemberCount(), now))
}
