// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// SignupToken proves control of an account's email address. There is at most
// one per account; its public id is the obfuscated form of ID.
type SignupToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"-"`
	AccountID int64     `db:"account_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExpiresAt returns the first instant at which the token counts as expired.
func (t *SignupToken) ExpiresAt(window time.Duration) time.Time {
	return t.CreatedAt.Add(window)
}

// Expired reports whether at least window has elapsed since creation.
func (t *SignupToken) Expired(window time.Duration, now time.Time) bool {
	return !now.Before(t.ExpiresAt(window))
}
