package web

import (
	"net/http"

	"github.com/vbonduro/platewise/internal/service"
)

type insightsRequest struct {
	Days           int     `json:"days" validate:"gte=0,lte=90"`
	TargetCalories float64 `json:"target_calories" validate:"gte=0"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report, err := s.service.Insights(r.Context(), service.InsightsQuery{Days: req.Days, TargetCalories: req.TargetCalories})
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to generate insights")
		s.logger.Error("insights failed", "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}
