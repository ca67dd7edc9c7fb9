// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth resolves bearer tokens to accounts and carries the result
// through the request context.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/accounts-api/internal/ctxkeys"
	"codeberg.org/oliverandrich/accounts-api/internal/models"
)

// WithAccount returns a copy of ctx carrying account. A nil account leaves
// ctx anonymous.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	if account == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxkeys.Account{}, account)
}

// GetAccount returns the authenticated account from the context, or nil if not authenticated.
func GetAccount(ctx context.Context) *models.Account {
	if account, ok := ctx.Value(ctxkeys.Account{}).(*models.Account); ok {
		return account
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated account.
func IsAuthenticated(ctx context.Context) bool {
	return GetAccount(ctx) != nil
}
