// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Command server runs the Atlas Tours identity service: account
// signup and login, stateless session tokens, and the password-reset
// flow, served over HTTP under a supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/atlastours/identity/internal/api"
	"github.com/atlastours/identity/internal/auth"
	"github.com/atlastours/identity/internal/config"
	"github.com/atlastours/identity/internal/logging"
	"github.com/atlastours/identity/internal/mailer"
	"github.com/atlastours/identity/internal/store"
	"github.com/atlastours/identity/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("starting identity service")

	db, err := store.OpenBadger(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close store")
		}
	}()
	users := store.NewBadgerStore(db)

	var mail mailer.Mailer
	if cfg.SMTP.Enabled() {
		mail = mailer.NewBreakerMailer(mailer.NewSMTPMailer(cfg.SMTP))
	} else {
		logging.Warn().Msg("no SMTP relay configured, reset emails will be logged")
		mail = mailer.LogMailer{}
	}

	hasher, err := auth.NewHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		return err
	}

	service := auth.NewService(users, mail, tokens, hasher, cfg.Security.ResetTokenTTL, cfg.Server.PublicURL)
	guard := auth.NewGuard(tokens, users, cfg.Security.CookieName)
	handlers := auth.NewHandlers(service, cfg.Security.CookieName, cfg.Server.IsProduction())

	router := api.NewRouter(cfg, handlers, guard)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, treeCfg.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report, rErr := tree.UnstoppedServiceReport(); rErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}

	logging.Info().Msg("identity service stopped")
	return nil
}
