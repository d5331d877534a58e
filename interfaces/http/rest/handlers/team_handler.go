package handlers

import (
	"net/http"

	"gamegroup-backend/application/commands"
	"gamegroup-backend/domain/core/entities"
	"gamegroup-backend/interfaces/http/rest/middleware"
	"gamegroup-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TeamHandler handles team lifecycle requests
type TeamHandler struct {
	commands *commands.Handler
	logger   *zap.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(cmds *commands.Handler, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{commands: cmds, logger: logger}
}

// LeaveTeamResponse reports the team after a leave. Team is omitted when the
// leader left and the team was destroyed.
type LeaveTeamResponse struct {
	Destroyed bool           `json:"destroyed"`
	Team      *entities.Team `json:"team,omitempty"`
}

// CreateTeam handles POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateTeamCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.UserID = middleware.UserIDFromContext(r.Context())

	team, err := h.commands.CreateTeam(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, team)
}

// JoinTeam handles POST /teams/{teamID}/join
func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.commands.JoinTeam(r.Context(), teamRef(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, team)
}

// LeaveTeam handles POST /teams/{teamID}/leave
func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	team, destroyed, err := h.commands.LeaveTeam(r.Context(), teamRef(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	resp := LeaveTeamResponse{Destroyed: destroyed}
	if !destroyed {
		resp.Team = team
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

func teamRef(r *http.Request) commands.TeamRef {
	return commands.TeamRef{
		TeamID: chi.URLParam(r, "teamID"),
		UserID: middleware.UserIDFromContext(r.Context()),
	}
}
