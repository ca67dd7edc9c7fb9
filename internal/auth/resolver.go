// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"codeberg.org/oliverandrich/accounts-api/internal/services/token"
)

// AccountFinder looks up accounts by email.
type AccountFinder interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Resolver turns an Authorization header into an account.
type Resolver struct {
	Tokens   *token.Codec
	Accounts AccountFinder
	Now      func() time.Time
}

// NewResolver creates a resolver using the wall clock.
func NewResolver(tokens *token.Codec, accounts AccountFinder) *Resolver {
	return &Resolver{
		Tokens:   tokens,
		Accounts: accounts,
		Now:      time.Now,
	}
}

// Resolve returns the account identified by a "Bearer <access token>"
// header, or nil for an anonymous request. It never fails: a missing or
// malformed header, an invalid token, a refresh token or an unknown email
// all resolve to nil.
func (r *Resolver) Resolve(ctx context.Context, header string) *models.Account {
	raw, ok := BearerToken(header)
	if !ok {
		return nil
	}

	claims, err := r.Tokens.Verify(raw, r.Now())
	if err != nil {
		return nil
	}
	if claims.Kind != token.KindAccess {
		return nil
	}

	account, err := r.Accounts.GetAccountByEmail(ctx, claims.Email)
	if err != nil {
		slog.DebugContext(ctx, "bearer_account_missing", "email", claims.Email, "error", err)
		return nil
	}
	return account
}

// BearerToken extracts the token from a "Bearer <token>" header. The scheme
// is matched case-insensitively; anything other than exactly two fields is
// rejected.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}
