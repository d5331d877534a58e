package handlers

import (
	"net/http"

	"gamegroup-backend/application/commands"
	"gamegroup-backend/application/services"
	"gamegroup-backend/interfaces/http/rest/middleware"
	"gamegroup-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GameHandler handles game-related HTTP requests
type GameHandler struct {
	enhancer *services.Enhancer
	commands *commands.Handler
	logger   *zap.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(enhancer *services.Enhancer, cmds *commands.Handler, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		enhancer: enhancer,
		commands: cmds,
		logger:   logger,
	}
}

// ListGames handles GET /games?ids=a,b
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.enhancer.GetEnhancedGames(r.Context(), splitList(r.URL.Query().Get("ids")))
	if err != nil {
		h.logger.Error("Failed to load games", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, games)
}

// FavoriteCounts handles GET /games/favorite-counts
func (h *GameHandler) FavoriteCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.enhancer.GetFavoriteCounts(r.Context())
	if err != nil {
		h.logger.Error("Failed to load favorite counts", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, counts)
}

// CreateGame handles POST /games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateGameCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.UserID = middleware.UserIDFromContext(r.Context())

	game, err := h.commands.CreateGame(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, game)
}

// UpdateGame handles PUT /games/{gameID}
func (h *GameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateGameCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.GameID = chi.URLParam(r, "gameID")
	cmd.UserID = middleware.UserIDFromContext(r.Context())

	game, err := h.commands.UpdateGame(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /games/{gameID}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.commands.DeleteGame(r.Context(), gameRef(r)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LikeGame handles POST /games/{gameID}/like
func (h *GameHandler) LikeGame(w http.ResponseWriter, r *http.Request) {
	likes, err := h.commands.LikeGame(r.Context(), gameRef(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"likeCount": likes})
}

// FavoriteGame handles POST /games/{gameID}/favorite
func (h *GameHandler) FavoriteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.commands.FavoriteGame(r.Context(), gameRef(r)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnfavoriteGame handles DELETE /games/{gameID}/favorite
func (h *GameHandler) UnfavoriteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.commands.UnfavoriteGame(r.Context(), gameRef(r)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func gameRef(r *http.Request) commands.GameRef {
	return commands.GameRef{
		GameID: chi.URLParam(r, "gameID"),
		UserID: middleware.UserIDFromContext(r.Context()),
	}
}
