// Package api provides the JSON handlers of the mimic HTTP API.
package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/ayusman/mimic/internal/gesture"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// AssetCatalog reports which gestures have an overlay image.
type AssetCatalog interface {
	Available() []gesture.Label
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// GestureHandler lists the gestures mimic recognizes.
type GestureHandler struct {
	assets AssetCatalog
}

func NewGestureHandler(assets AssetCatalog) *GestureHandler {
	return &GestureHandler{assets: assets}
}

type gestureResponse struct {
	Label   string `json:"label"`
	Overlay bool   `json:"overlay"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

// ServeHTTP handles GET /api/gestures.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	available := h.assets.Available()

	labels := gesture.Labels()
	response := listGesturesResponse{Gestures: make([]gestureResponse, 0, len(labels))}
	for _, l := range labels {
		response.Gestures = append(response.Gestures, gestureResponse{
			Label:   string(l),
			Overlay: slices.Contains(available, l),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
