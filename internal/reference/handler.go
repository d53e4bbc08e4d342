package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
)

// Handler exposes reference data on the internal API.
type Handler struct {
	service *Service
}

// NewHandler builds the handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers the reference route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Load(r.Context()))
}
