// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/atlastours/identity/internal/logging"
	"github.com/atlastours/identity/internal/models"
	"github.com/atlastours/identity/internal/store"
)

// validate is the shared request validator.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Handlers exposes the account lifecycle over HTTP.
type Handlers struct {
	service    *Service
	cookieName string
	secure     bool
}

// NewHandlers creates the HTTP handlers. secure controls the Secure
// attribute on session cookies and should be true in production.
func NewHandlers(service *Service, cookieName string, secure bool) *Handlers {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Handlers{
		service:    service,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Routes mounts the account endpoints on a fresh router.
func (h *Handlers) Routes(guard *Guard) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Patch("/reset-password/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect)
		r.Get("/me", h.Me)
		r.Patch("/update-password", h.UpdatePassword)

		r.With(guard.RestrictTo(models.RoleAdmin)).Patch("/{id}/role", h.ChangeRole)
	})

	return r
}

type signupRequest struct {
	Name            string `json:"name" validate:"required,max=128"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// Signup registers a new account and logs it in.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.service.Signup(r.Context(), SignupParams{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.sendToken(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an email/password pair.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.sendToken(w, http.StatusOK, session)
}

// Logout overwrites the session cookie with a short-lived dummy value.
// Stateless tokens cannot be revoked server-side; clients holding the
// token in a header simply discard it.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "logged-out",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword starts the reset flow for the submitted email.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// ResetPassword consumes the emailed reset token from the URL.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	token := chi.URLParam(r, "token")
	session, err := h.service.ResetPassword(r.Context(), token, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.sendToken(w, http.StatusOK, session)
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// UpdatePassword changes the authenticated account's password.
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
		return
	}

	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.service.UpdatePassword(r.Context(), identity.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.sendToken(w, http.StatusOK, session)
}

// Me returns the authenticated identity.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": identity},
	})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ChangeRole sets another account's role. Admin only.
func (h *Handlers) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": user},
	})
}

// decode parses and validates the JSON request body, responding with a
// 400 itself on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// sendToken writes the session cookie and the success envelope.
func (h *Handlers) sendToken(w http.ResponseWriter, status int, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.service.tokens.Lifetime()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, status, map[string]any{
		"status": "success",
		"token":  session.Token,
		"data":   map[string]any{"user": session.User},
	})
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidResetToken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrEmailTaken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		logging.Error().Err(err).Msg("internal error serving auth request")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON writes a JSON response body.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes the failure envelope. 4xx failures are "fail",
// 5xx are "error".
func respondError(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= http.StatusInternalServerError {
		kind = "error"
	}
	respondJSON(w, status, map[string]any{
		"status":  kind,
		"message": message,
	})
}
