package handlers

import (
	"net/http"

	"gamegroup-backend/application/services"
	"gamegroup-backend/pkg/common"
	apperrors "gamegroup-backend/pkg/errors"

	"go.uber.org/zap"
)

// CacheHandler exposes the invalidation surface for operators
type CacheHandler struct {
	invalidator *services.CacheInvalidator
	logger      *zap.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(invalidator *services.CacheInvalidator, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{invalidator: invalidator, logger: logger}
}

// Invalidate handles POST /cache/invalidate?scope=games|votes|all
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	switch scope {
	case "games":
		h.invalidator.InvalidateGameCaches()
	case "votes":
		h.invalidator.InvalidateVoteCaches()
	case "", "all":
		scope = "all"
		h.invalidator.InvalidateAll()
	default:
		common.RespondAppError(w, apperrors.NewValidationError("scope must be games, votes or all"))
		return
	}

	h.logger.Info("Cache invalidated", zap.String("scope", scope))
	common.RespondJSON(w, http.StatusOK, map[string]string{"scope": scope})
}
