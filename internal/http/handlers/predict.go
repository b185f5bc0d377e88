package handlers

import (
	"net/http"
	"strings"

	"impacthub/internal/providers/impact"
)

type predictRequest struct {
	Title       string `json:"title"`
	Area        string `json:"area"`
	ImpactArea  string `json:"impact_area"`
	Description string `json:"description"`
}

// PredictImpact runs the configured classifier and returns its verdict as-is.
func (a *App) PredictImpact(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !a.decode(w, r, &req) {
		return
	}
	area := req.Area
	if strings.TrimSpace(area) == "" {
		area = req.ImpactArea
	}
	in := impact.Input{
		Title:       strings.TrimSpace(req.Title),
		Area:        strings.TrimSpace(area),
		Description: strings.TrimSpace(req.Description),
	}
	if in.Title == "" && in.Area == "" && in.Description == "" {
		a.error(w, http.StatusBadRequest, "invalid_request", "title, area or description required")
		return
	}
	a.json(w, http.StatusOK, a.Classifier.Classify(r.Context(), in))
}
