// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package supervisor runs the service under a suture supervisor tree
// with restart backoff and bounded graceful shutdown. Supervisor
// events are routed into the structured log via sutureslog.
package supervisor
