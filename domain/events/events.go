package events

import (
	"time"
)

// SourceBackend is the EventBridge source for events raised by this service.
const SourceBackend = "gamegroup.backend"

// Event types
const (
	TypeGameCreated     = "game.created"
	TypeGameUpdated     = "game.updated"
	TypeGameDeleted     = "game.deleted"
	TypeGameLiked       = "game.liked"
	TypeGameFavorited   = "game.favorited"
	TypeGameUnfavorited = "game.unfavorited"
	TypeVoteSubmitted   = "vote.submitted"
	TypeTeamCreated     = "team.created"
	TypeTeamJoined      = "team.joined"
	TypeTeamLeft        = "team.left"
	TypeTeamDestroyed   = "team.destroyed"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// GameEvent is raised for any game mutation, including likes and favorites.
type GameEvent struct {
	BaseEvent
	GameID string `json:"game_id"`
	UserID string `json:"user_id,omitempty"`
}

// NewGameEvent creates a GameEvent of the given type
func NewGameEvent(eventType, gameID, userID string, timestamp time.Time) GameEvent {
	return GameEvent{
		BaseEvent: BaseEvent{
			AggregateID: gameID,
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		GameID: gameID,
		UserID: userID,
	}
}

// VoteSubmitted is raised when a daily ballot is stored
type VoteSubmitted struct {
	BaseEvent
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	WantsToPlay bool   `json:"wants_to_play"`
}

// NewVoteSubmitted creates a VoteSubmitted event
func NewVoteSubmitted(voteID, userID, date string, wantsToPlay bool, timestamp time.Time) VoteSubmitted {
	return VoteSubmitted{
		BaseEvent: BaseEvent{
			AggregateID: voteID,
			EventType:   TypeVoteSubmitted,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:      userID,
		Date:        date,
		WantsToPlay: wantsToPlay,
	}
}

// TeamEvent is raised for team membership changes
type TeamEvent struct {
	BaseEvent
	TeamID      string `json:"team_id"`
	GameID      string `json:"game_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status,omitempty"`
	MemberCount int    `json:"member_count"`
}

// NewTeamEvent creates a TeamEvent of the given type
func NewTeamEvent(eventType, teamID, gameID, userID, status string, memberCount int, timestamp time.Time) TeamEvent {
	return TeamEvent{
		BaseEvent: BaseEvent{
			AggregateID: teamID,
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		TeamID:      teamID,
		GameID:      gameID,
		UserID:      userID,
		Status:      status,
		MemberCount: memberCount,
	}
}
