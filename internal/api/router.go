// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlastours/identity/internal/auth"
	"github.com/atlastours/identity/internal/config"
	"github.com/atlastours/identity/internal/logging"
)

// Router assembles the HTTP surface: the account endpoints, health,
// metrics, and the session introspection endpoint.
type Router struct {
	cfg      *config.Config
	handlers *auth.Handlers
	guard    *auth.Guard
}

// NewRouter creates the router around the account handlers.
func NewRouter(cfg *config.Config, handlers *auth.Handlers, guard *auth.Guard) *Router {
	return &Router{
		cfg:      cfg,
		handlers: handlers,
		guard:    guard,
	}
}

// Handler builds the full middleware and route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(securityHeaders)

	if len(rt.cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           86400,
		}))
	}

	r.Get("/api/v1/health", rt.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Soft session check: reports the identity when a valid token is
	// presented, an anonymous response otherwise. Never a 401.
	r.With(rt.guard.IsLoggedIn).Get("/api/v1/session", rt.handleSession)

	r.Mount("/api/v1/users", rt.handlers.Routes(rt.guard))

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (rt *Router) handleSession(w http.ResponseWriter, r *http.Request) {
	if identity := auth.GetIdentity(r.Context()); identity != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user":          identity,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// securityHeaders adds the standard API response headers. HSTS is only
// set when the request arrived over TLS, directly or via a
// TLS-terminating proxy.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request completed")
	})
}
