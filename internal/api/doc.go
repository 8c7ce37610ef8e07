// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package api assembles the HTTP route tree and the cross-cutting
// middleware: request logging, security headers, CORS, health, and
// Prometheus metrics exposure.
package api
