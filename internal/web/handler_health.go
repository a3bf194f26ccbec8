package web

import "net/http"

type healthResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model"`
	Breaker string `json:"breaker,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	model := "fallback"
	if s.service.ModelLive() {
		model = "live"
	}
	writeJSON(w, s.logger, http.StatusOK, healthResponse{Status: "ok", Model: model, Breaker: s.service.BreakerState()})
}
