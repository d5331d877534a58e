package entities

import (
	"fmt"
	"slices"
	"time"

	apperrors "gamegroup-backend/pkg/errors"
)

// TeamStatus is the lifecycle state of a team.
type TeamStatus string

const (
	TeamStatusOpen TeamStatus = "open"
	TeamStatusFull TeamStatus = "full"
	// TeamStatusCompleted is set outside this service and is never recomputed.
	TeamStatusCompleted TeamStatus = "completed"
)

// Team is a group formed around one game. Members always includes the
// leader first, then everyone else in join order.
type Team struct {
	ID         string     `json:"id"`
	GameID     string     `json:"gameId"`
	LeaderID   string     `json:"leaderId"`
	Members    []string   `json:"members"`
	MaxMembers int        `json:"maxMembers"`
	Status     TeamStatus `json:"status"`
	StartTime  time.Time  `json:"startTime"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewTeam creates an open team led by leaderID.
func NewTeam(id, gameID, leaderID string, maxMembers int, startTime, now time.Time) (*Team, error) {
	if gameID == "" || leaderID == "" {
		return nil, apperrors.NewValidationError("team requires a game and a leader")
	}
	if maxMembers < 2 {
		return nil, apperrors.NewValidationError("team needs room for at least two members")
	}
	if startTime.IsZero() {
		startTime = now
	}

	team := &Team{
		ID:         id,
		GameID:     gameID,
		LeaderID:   leaderID,
		Members:    []string{leaderID},
		MaxMembers: maxMembers,
		StartTime:  startTime,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	team.RecomputeStatus()
	return team, nil
}

// MemberCount returns the number of members including the leader.
func (t *Team) MemberCount() int {
	return len(t.Members)
}

// IsMember reports whether userID belongs to the team.
func (t *Team) IsMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

// IsOpen reports whether the team still accepts members.
func (t *Team) IsOpen() bool {
	return t.Status == TeamStatusOpen
}

// VacancyRate is the unfilled fraction of the team's capacity.
func (t *Team) VacancyRate() float64 {
	if t.MaxMembers <= 0 {
		return 0
	}
	free := t.MaxMembers - t.MemberCount()
	if free < 0 {
		free = 0
	}
	return float64(free) / float64(t.MaxMembers)
}

// RecomputeStatus derives open/full from the member count. Completed teams
// keep their status.
func (t *Team) RecomputeStatus() {
	if t.Status == TeamStatusCompleted {
		return
	}
	if t.MemberCount() >= t.MaxMembers {
		t.Status = TeamStatusFull
		return
	}
	t.Status = TeamStatusOpen
}

// Join adds userID to the team.
func (t *Team) Join(userID string, now time.Time) error {
	if userID == "" {
		return apperrors.NewValidationError("user is required")
	}
	if t.IsMember(userID) {
		return apperrors.NewConflictError(fmt.Sprintf("user %s already in team %s", userID, t.ID))
	}
	if !t.IsOpen() {
		return apperrors.NewConflictError(fmt.Sprintf("team %s is %s", t.ID, t.Status))
	}

	t.Members = append(t.Members, userID)
	t.UpdatedAt = now
	t.RecomputeStatus()
	return nil
}

// Leave removes userID from the team. When the leader leaves, the team is
// destroyed and the caller must delete the record.
func (t *Team) Leave(userID string, now time.Time) (destroyed bool, err error) {
	if !t.IsMember(userID) {
		return false, apperrors.NewValidationError(fmt.Sprintf("user %s is not in team %s", userID, t.ID))
	}
	if userID == t.LeaderID {
		return true, nil
	}

	t.Members = slices.DeleteFunc(t.Members, func(m string) bool { return m == userID })
	t.UpdatedAt = now
	t.RecomputeStatus()
	return false, nil
}
