package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/api"
	"github.com/moogship/moogship/internal/auth"
)

// Router exposes balance and analytics endpoints.
type Router struct {
	service *Service
}

func NewRouter(service *Service) *Router {
	return &Router{service: service}
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// HandleBalance handles GET /api/balance
func (rt *Router) HandleBalance(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	balance, err := rt.service.CurrentBalance(r.Context(), authCtx.ID)
	if err != nil {
		slog.Error("failed to fetch balance", "user_id", authCtx.ID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to fetch balance")
		return
	}

	api.WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

type topUpRequest struct {
	UserID      uuid.UUID `json:"userId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

// HandleTopUp handles POST /api/balance/top-ups. Admin only: credits a
// customer's balance and returns the new balance.
func (rt *Router) HandleTopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		api.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Amount <= 0 {
		api.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	description := req.Description
	if description == "" {
		description = "Balance top-up"
	}

	balance, err := rt.service.Credit(r.Context(), req.UserID, req.Amount, description)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.Error("failed to credit balance", "user_id", req.UserID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to credit balance")
		return
	}

	api.WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// HandleDailyGrossRevenue handles GET /api/analytics/daily-gross-revenue?from=&to=
// Admin only. Defaults to the last 30 days.
func (rt *Router) HandleDailyGrossRevenue(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		to = parsed.Add(24 * time.Hour)
	}

	rows, err := rt.service.DailyGrossRevenue(r.Context(), from, to)
	if err != nil {
		slog.Error("failed to aggregate revenue", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to aggregate revenue")
		return
	}

	api.WriteJSON(w, http.StatusOK, rows)
}
