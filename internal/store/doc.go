// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package store persists credential records.
//
// Two implementations are provided: a durable BadgerDB store for
// production and an in-memory store for tests and development. Both
// enforce the persistence contract the authentication flows rely on:
// unique normalized emails, inactive records invisible to every find
// operation, and password/reset hashes stripped from default projections
// unless the caller opts in.
package store
