package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mimic/internal/gesture"
)

// DetectionControl toggles gesture processing and reports the current label.
type DetectionControl interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
	Label() gesture.Label
}

// DetectionHandler exposes DetectionControl over HTTP.
type DetectionHandler struct {
	ctl DetectionControl
}

func NewDetectionHandler(ctl DetectionControl) *DetectionHandler {
	return &DetectionHandler{ctl: ctl}
}

type detectionResponse struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

type updateDetectionRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *DetectionHandler) state() detectionResponse {
	return detectionResponse{Enabled: h.ctl.IsEnabled(), Label: string(h.ctl.Label())}
}

// Get handles GET /api/detection.
func (h *DetectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state())
}

// Put handles PUT /api/detection.
func (h *DetectionHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req updateDetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.ctl.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, h.state())
}
