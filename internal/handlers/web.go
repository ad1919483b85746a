package handlers

import (
	"net/http"
	"time"

	"nexconsult/internal/models"
	"nexconsult/internal/version"
	"nexconsult/web/templates"
)

var startTime = time.Now()

// WebHandler serves the landing page and the health endpoint.
type WebHandler struct{}

func NewWebHandler() *WebHandler {
	return &WebHandler{}
}

func (h *WebHandler) LandingPage(w http.ResponseWriter, r *http.Request) {
	if err := templates.Templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *WebHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Version:   version.GetVersion(),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	})
}
