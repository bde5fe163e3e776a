package pricing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moogship/moogship/internal/api"
)

// Router exposes the pricing endpoints.
type Router struct {
	engine   *Engine
	validate *validator.Validate
}

func NewRouter(engine *Engine) *Router {
	return &Router{engine: engine, validate: validator.New()}
}

// HandleCalculatePrice handles POST /api/calculate-price
// Request body: QuoteRequest
// Response: QuoteResult
func (rt *Router) HandleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.engine.Quote(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrNoRates) {
			api.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("quote failed", "country", req.ReceiverCountry, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to calculate price")
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

type insuranceRequest struct {
	DeclaredValue float64 `json:"declaredValue" validate:"required,gt=0"`
}

type insuranceResponse struct {
	Cost float64 `json:"cost"`
}

// HandleCalculateInsurance handles POST /api/calculate-insurance
func (rt *Router) HandleCalculateInsurance(w http.ResponseWriter, r *http.Request) {
	var req insuranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	api.WriteJSON(w, http.StatusOK, insuranceResponse{Cost: rt.engine.InsuranceCost(req.DeclaredValue)})
}
