package support

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moogship/moogship/internal/api"
	"github.com/moogship/moogship/internal/auth"
)

// Router exposes the support ticket endpoints.
type Router struct {
	service  *Service
	validate *validator.Validate
}

func NewRouter(service *Service) *Router {
	return &Router{service: service, validate: validator.New()}
}

// HandleCreate handles POST /api/support-tickets
func (rt *Router) HandleCreate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	var req CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := rt.service.Create(r.Context(), authCtx.ID, req)
	if err != nil {
		if errors.Is(err, ErrAttachmentMissing) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create ticket", "user_id", authCtx.ID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to create ticket")
		return
	}

	api.WriteJSON(w, http.StatusCreated, ticket)
}

// HandleList handles GET /api/support-tickets
func (rt *Router) HandleList(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	tickets, err := rt.service.List(r.Context(), authCtx.ID, authCtx.IsAdmin())
	if err != nil {
		slog.Error("failed to list tickets", "user_id", authCtx.ID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}

	api.WriteJSON(w, http.StatusOK, tickets)
}
