package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"equitylens/pkg/contracts"
	api "equitylens/pkg/contracts/api/v1"
)

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates the handler.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{logger: logger.With(slog.String("handler", "health"))}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.HealthResponse{
		Status:  "ok",
		Version: contracts.Version,
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
