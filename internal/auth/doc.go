// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package auth implements the account lifecycle: bcrypt password
// hashing, stateless HS256 session tokens, the single-use hashed
// password-reset flow, and the Protect/IsLoggedIn/RestrictTo HTTP
// middleware. Session verification is purely cryptographic plus one
// store read for the stale-token check; there is no server-side
// session state.
package auth
