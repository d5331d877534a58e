package handlers

import (
	"net/http"

	"gamegroup-backend/application/commands"
	"gamegroup-backend/application/services"
	"gamegroup-backend/interfaces/http/rest/middleware"
	"gamegroup-backend/pkg/common"

	"go.uber.org/zap"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
)

// VoteHandler handles vote-related HTTP requests
type VoteHandler struct {
	enhancer *services.Enhancer
	commands *commands.Handler
	logger   *zap.Logger
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(enhancer *services.Enhancer, cmds *commands.Handler, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		enhancer: enhancer,
		commands: cmds,
		logger:   logger,
	}
}

// Stats handles GET /votes/stats?days=
func (h *VoteHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultStatsDays, 1, maxStatsDays)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	stats, err := h.enhancer.GetBatchVoteStats(r.Context(), days)
	if err != nil {
		h.logger.Error("Failed to load vote stats", zap.Int("days", days), zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// Daily handles GET /votes/daily?date=. Data is absent when the caller has
// not voted that day.
func (h *VoteHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	vote, err := h.enhancer.GetUserDailyVote(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, vote)
}

// SubmitVote handles POST /votes
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SubmitVoteCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.UserID = middleware.UserIDFromContext(r.Context())

	vote, err := h.commands.SubmitVote(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, vote)
}
