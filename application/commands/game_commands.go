package commands

import (
	"context"

	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/domain/events"
	apperrors "gamegroup-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateGameCommand adds a game to the catalogue
type CreateGameCommand struct {
	UserID      string `json:"userId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=50"`
	MinPlayers  int    `json:"minPlayers" validate:"gte=1"`
	MaxPlayers  int    `json:"maxPlayers" validate:"gtefield=MinPlayers"`
}

// UpdateGameCommand replaces the editable fields of a game
type UpdateGameCommand struct {
	GameID      string `json:"gameId" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=50"`
	MinPlayers  int    `json:"minPlayers" validate:"gte=1"`
	MaxPlayers  int    `json:"maxPlayers" validate:"gtefield=MinPlayers"`
}

// GameRef identifies a game acted on by a user
type GameRef struct {
	GameID string `json:"gameId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// CreateGame stores a new game owned by the caller
func (h *Handler) CreateGame(ctx context.Context, cmd CreateGameCommand) (*entities.Game, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, err
	}

	now := h.now()
	game := &entities.Game{
		ID:          h.newID(),
		Name:        cmd.Name,
		Description: cmd.Description,
		Category:    cmd.Category,
		MinPlayers:  cmd.MinPlayers,
		MaxPlayers:  cmd.MaxPlayers,
		OwnerID:     cmd.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repos.Games.Save(ctx, game); err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameCreated, game.ID, cmd.UserID, now))
	h.invalidator.InvalidateGameCaches()

	h.logger.Info("Game created", zap.String("gameID", game.ID), zap.String("userID", cmd.UserID))
	return game, nil
}

// UpdateGame edits a game. Only its owner may do so; games without an owner
// are editable by anyone.
func (h *Handler) UpdateGame(ctx context.Context, cmd UpdateGameCommand) (*entities.Game, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return nil, err
	}

	game, err := h.ownedGame(ctx, cmd.GameID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	game.Name = cmd.Name
	game.Description = cmd.Description
	game.Category = cmd.Category
	game.MinPlayers = cmd.MinPlayers
	game.MaxPlayers = cmd.MaxPlayers
	game.UpdatedAt = now
	if err := h.repos.Games.Save(ctx, game); err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameUpdated, game.ID, cmd.UserID, now))
	h.invalidator.InvalidateGameCaches()
	return game, nil
}

// DeleteGame removes a game owned by the caller
func (h *Handler) DeleteGame(ctx context.Context, cmd GameRef) error {
	if err := h.validator.Validate(cmd); err != nil {
		return err
	}
	if _, err := h.ownedGame(ctx, cmd.GameID, cmd.UserID); err != nil {
		return err
	}
	if err := h.repos.Games.Delete(ctx, cmd.GameID); err != nil {
		return err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameDeleted, cmd.GameID, cmd.UserID, h.now()))
	h.invalidator.InvalidateGameCaches()

	h.logger.Info("Game deleted", zap.String("gameID", cmd.GameID), zap.String("userID", cmd.UserID))
	return nil
}

// LikeGame atomically increments the like counter and returns the new value
func (h *Handler) LikeGame(ctx context.Context, cmd GameRef) (int, error) {
	if err := h.validator.Validate(cmd); err != nil {
		return 0, err
	}

	likes, err := h.repos.Games.IncrementLikes(ctx, cmd.GameID, 1)
	if err != nil {
		return 0, err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameLiked, cmd.GameID, cmd.UserID, h.now()))
	h.invalidator.InvalidateGameCaches()
	return likes, nil
}

// FavoriteGame adds the game to the user's favorites. Favoriting twice is a no-op.
func (h *Handler) FavoriteGame(ctx context.Context, cmd GameRef) error {
	if err := h.validator.Validate(cmd); err != nil {
		return err
	}
	if _, err := h.repos.Games.GetByID(ctx, cmd.GameID); err != nil {
		return err
	}

	exists, err := h.repos.Favorites.Exists(ctx, cmd.UserID, cmd.GameID)
	if err != nil && !apperrors.IsCollectionNotFound(err) {
		return err
	}
	if exists {
		return nil
	}

	now := h.now()
	favorite := &entities.Favorite{
		ID:        h.newID(),
		UserID:    cmd.UserID,
		GameID:    cmd.GameID,
		CreatedAt: now,
	}
	if err := h.repos.Favorites.Save(ctx, favorite); err != nil {
		return err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameFavorited, cmd.GameID, cmd.UserID, now))
	h.invalidator.InvalidateGameCaches()
	return nil
}

// UnfavoriteGame removes the game from the user's favorites
func (h *Handler) UnfavoriteGame(ctx context.Context, cmd GameRef) error {
	if err := h.validator.Validate(cmd); err != nil {
		return err
	}
	if err := h.repos.Favorites.Delete(ctx, cmd.UserID, cmd.GameID); err != nil {
		return err
	}

	h.publish(ctx, events.NewGameEvent(events.TypeGameUnfavorited, cmd.GameID, cmd.UserID, h.now()))
	h.invalidator.InvalidateGameCaches()
	return nil
}

func (h *Handler) ownedGame(ctx context.Context, gameID, userID string) (*entities.Game, error) {
	game, err := h.repos.Games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.OwnerID != "" && game.OwnerID != userID {
		return nil, apperrors.NewForbiddenError("only the game owner can change this game")
	}
	return game, nil
}
