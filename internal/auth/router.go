package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moogship/moogship/internal/api"
)

// Router exposes the authentication endpoints.
type Router struct {
	service  *AuthService
	tokens   *TokenService
	validate *validator.Validate
}

func NewRouter(service *AuthService, tokens *TokenService) *Router {
	return &Router{
		service:  service,
		tokens:   tokens,
		validate: validator.New(),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// HandleRegister handles POST /api/register
func (rt *Router) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := rt.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			api.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("registration failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	token, err := rt.tokens.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	api.WriteJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

// HandleLogin handles POST /api/login
func (rt *Router) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := rt.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.Error("login failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	token, err := rt.tokens.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	api.WriteJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

// HandleCurrentUser handles GET /api/user
func (rt *Router) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	api.WriteJSON(w, http.StatusOK, authCtx.User)
}
