package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/api/middleware"
	"github.com/trendingvenues/termdict/internal/auth"
)

// AuthHandler handles sign-in, sign-up, and password endpoints.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler creates a new handler
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Routes returns the unauthenticated auth routes.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signin", h.SignIn)
	r.Post("/signup", h.SignUp)
	r.Post("/signout", h.SignOut)
	r.Post("/reset-password", h.ResetPassword)
	return r
}

// credentialsRequest is the body for signin and signup.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.svc.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.authError(w, err)
		return
	}

	h.logger.Info("user signed in",
		zap.String("user_id", sess.Identity.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	h.writeJSON(w, http.StatusOK, sess)
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.svc.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		h.authError(w, err)
		return
	}

	h.logger.Info("user signed up",
		zap.String("user_id", sess.Identity.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	h.writeJSON(w, http.StatusCreated, sess)
}

// SignOut handles POST /auth/signout. It revokes the caller's own bearer
// token; without one there is nothing to revoke and the response is still
// success.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.svc.SignOutToken(r.Context(), token); err != nil {
		h.jsonError(w, "sign out failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resetRequest is the body for requesting a password reset.
type resetRequest struct {
	Email string `json:"email"`
}

// ResetPassword handles POST /auth/reset-password. The response does not
// reveal whether the email has an account.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.ResetPassword(ctx, req.Email); err != nil {
		h.authError(w, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset link has been sent",
	})
}

// passwordRequest is the body for setting a new password.
type passwordRequest struct {
	Password string `json:"password"`
}

// UpdatePassword handles POST /password. It is mounted behind session auth,
// so the identity comes from the request context.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ident := middleware.GetIdentity(ctx)
	if ident == nil {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdatePasswordFor(ctx, ident.ID, req.Password); err != nil {
		h.authError(w, err)
		return
	}

	h.logger.Info("password updated",
		zap.String("user_id", ident.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	w.WriteHeader(http.StatusNoContent)
}

// authError maps auth failures onto HTTP statuses.
func (h *AuthHandler) authError(w http.ResponseWriter, err error) {
	var domainErr *auth.DomainError
	switch {
	case errors.As(err, &domainErr):
		h.jsonError(w, domainErr.Error(), http.StatusForbidden)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.jsonError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrPasswordTooShort):
		h.jsonError(w, auth.ErrPasswordTooShort.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, auth.ErrNoSession):
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
	default:
		h.logger.Error("auth operation failed", zap.Error(err))
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *AuthHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *AuthHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
