package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/insecurazon/ins-webserver/internal/service"
)

// dataSourceReporter exposes how the catalog was resolved.
type dataSourceReporter interface {
	State() service.DataSourceState
}

// HealthHandler provides health check endpoint
type HealthHandler struct {
	catalog dataSourceReporter
	version string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalog dataSourceReporter, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		catalog: catalog,
		version: version,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                  `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Version    string                  `json:"version"`
	DataSource service.DataSourceState `json:"dataSource"`
}

// ServeHTTP handles health check requests. Running on fallback data is
// reported as "degraded" but still answers 200; the server keeps serving.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.catalog.State()

	status := "healthy"
	if state.UsingFallback {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		DataSource: state,
	}, h.logger)
}
