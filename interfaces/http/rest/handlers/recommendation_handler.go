package handlers

import (
	"net/http"

	"gamegroup-backend/application/services"
	"gamegroup-backend/interfaces/http/rest/middleware"
	"gamegroup-backend/pkg/common"

	"go.uber.org/zap"
)

// RecommendationHandler serves personalized team recommendations
type RecommendationHandler struct {
	recommender *services.Recommender
	logger      *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommender *services.Recommender, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender, logger: logger}
}

// Recommend handles GET /recommendations
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	teams, err := h.recommender.GetRecommendedTeams(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, teams)
}
