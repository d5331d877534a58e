package handlers

import (
	"context"
	"net/http"
	"time"

	"gamegroup-backend/application/services"
	"gamegroup-backend/domain/core/valueobjects"
	"gamegroup-backend/pkg/common"
	apperrors "gamegroup-backend/pkg/errors"

	"go.uber.org/zap"
)

// ReportHandler serves the analytics reports
type ReportHandler struct {
	reports *services.Reports
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *services.Reports, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// Favorites handles GET /reports/favorites
func (h *ReportHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, h.reports.FavoriteReport)
}

// Votes handles GET /reports/votes
func (h *ReportHandler) Votes(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, h.reports.VoteReport)
}

// Teams handles GET /reports/teams
func (h *ReportHandler) Teams(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, h.reports.TeamReport)
}

func serveReport[T any](h *ReportHandler, w http.ResponseWriter, r *http.Request, build func(context.Context, valueobjects.TimeRange) (T, error)) {
	rng, err := h.timeRange(r)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	report, err := build(r.Context(), rng)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, report)
}

// timeRange resolves ?range=week|month|quarter|year and the optional explicit
// start/end bounds.
func (h *ReportHandler) timeRange(r *http.Request) (valueobjects.TimeRange, error) {
	now := h.now().In(valueobjects.Calendar)

	name, err := valueobjects.ParseRangeName(r.URL.Query().Get("range"))
	if err != nil {
		return valueobjects.TimeRange{}, apperrors.NewValidationError(err.Error())
	}
	start, err := timeParam(r, "start", now.Location(), false)
	if err != nil {
		return valueobjects.TimeRange{}, err
	}
	end, err := timeParam(r, "end", now.Location(), true)
	if err != nil {
		return valueobjects.TimeRange{}, err
	}
	if start == nil && end != nil {
		return valueobjects.TimeRange{}, apperrors.NewValidationError("end requires start")
	}
	return valueobjects.ResolveTimeRange(name, start, end, now), nil
}
