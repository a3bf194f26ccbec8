package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/platewise/internal/domain"
)

type planResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	domain.WeeklyMealPlan
}

func newPlanResponse(p *domain.StoredPlan) planResponse {
	return planResponse{ID: p.ID, CreatedAt: p.CreatedAt, WeeklyMealPlan: p.Plan}
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserNutritionProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	stored, err := s.service.GeneratePlan(r.Context(), profile)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to generate meal plan")
		s.logger.Error("generate plan failed", "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, newPlanResponse(stored))
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	stored, err := s.service.LatestPlan(r.Context())
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to load meal plan")
		s.logger.Error("latest plan failed", "error", err)
		return
	}
	if stored == nil {
		writeError(w, s.logger, http.StatusNotFound, "not_found", "no meal plan generated yet")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, newPlanResponse(stored))
}

func (s *Server) handleReplaceMeal(w http.ResponseWriter, r *http.Request) {
	var req domain.MealReplacementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.service.ReplaceMeal(r.Context(), req))
}
