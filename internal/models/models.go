// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models holds the rows persisted by the repository.
package models

import (
	"time"
)

// Account is a principal that can sign up, confirm its email and obtain tokens.
type Account struct { //nolint:govet // fieldalignment not critical for models
	ID           int64     `db:"id" json:"-"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool      `db:"is_superuser" json:"is_superuser"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (a *Account) String() string {
	return a.Email
}
