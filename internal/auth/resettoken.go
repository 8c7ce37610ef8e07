// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// resetTokenLength is the length of the random reset token in bytes.
const resetTokenLength = 32

// GenerateResetToken returns a high-entropy random reset token and the
// hash under which it is stored. The plaintext goes to the user by
// email; only the hash is persisted. A single fast SHA-256 is enough
// here: the token has 256 bits of entropy, so unlike a password it is
// not a per-guess brute-force target.
func GenerateResetToken() (plaintext, hash string, err error) {
	buf := make([]byte, resetTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashResetToken(plaintext), nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
