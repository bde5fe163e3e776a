package tracking

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/moogship/moogship/internal/api"
)

// Router exposes the public tracking lookup.
type Router struct {
	service *Service
}

func NewRouter(service *Service) *Router {
	return &Router{service: service}
}

// HandleTrack handles GET /api/track/{trackingNumber}
// Public, no auth required.
func (rt *Router) HandleTrack(w http.ResponseWriter, r *http.Request) {
	trackingNumber := r.PathValue("trackingNumber")
	if trackingNumber == "" {
		api.WriteError(w, http.StatusBadRequest, "tracking number is required")
		return
	}

	result, err := rt.service.Lookup(r.Context(), trackingNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, "shipment not found")
			return
		}
		slog.Error("tracking lookup failed", "tracking_number", trackingNumber, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to look up shipment")
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}
