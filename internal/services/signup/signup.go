// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package signup manages the single-use token that proves control of an
// account's email address.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"codeberg.org/oliverandrich/accounts-api/internal/obfuscate"
	"codeberg.org/oliverandrich/accounts-api/internal/repository"
)

// DefaultExpiry is the signup token lifetime when none is configured.
const DefaultExpiry = 24 * time.Hour

var (
	// ErrNotFound is returned when no token matches a public id.
	ErrNotFound = errors.New("signup token not found")
	// ErrExpired is returned when a token is confirmed after its window.
	ErrExpired = errors.New("signup token expired")
)

// Service issues and consumes signup tokens.
type Service struct {
	repo    *repository.Repository
	ids     obfuscate.Codec
	expiry  time.Duration
	baseURL string

	// Now is the clock used for issuance and expiry checks.
	Now func() time.Time
}

// NewService creates a signup token service. baseURL is the public address
// of the app that serves the confirmation page.
func NewService(repo *repository.Repository, ids obfuscate.Codec, expiry time.Duration, baseURL string) *Service {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Service{
		repo:    repo,
		ids:     ids,
		expiry:  expiry,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		Now:     time.Now,
	}
}

// Expiry returns the configured confirmation window.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// Issue replaces any token of account with a fresh one created now. The
// delete and insert share one immediate transaction, so concurrent calls
// for the same account leave exactly one row.
func (s *Service) Issue(ctx context.Context, account *models.Account) (*models.SignupToken, error) {
	var token *models.SignupToken

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.DeleteAccountSignupTokens(ctx, account.ID); err != nil {
			return err
		}
		var err error
		token, err = tx.CreateSignupToken(ctx, account.ID, s.Now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("issue signup token: %w", err)
	}

	slog.InfoContext(ctx, "signup_token_issued", "account_id", account.ID, "token_id", token.ID)
	return token, nil
}

// IsExpired reports whether the confirmation window of token has elapsed.
func (s *Service) IsExpired(token *models.SignupToken, now time.Time) bool {
	return token.Expired(s.expiry, now)
}

// PublicID returns the id under which token is exposed.
func (s *Service) PublicID(token *models.SignupToken) int64 {
	return s.ids.Encode(token.ID)
}

// Link returns the confirmation URL sent to the account's email address.
func (s *Service) Link(token *models.SignupToken) string {
	return s.baseURL + "/accounts/confirm-email/" + strconv.FormatInt(s.PublicID(token), 10)
}

// Confirm activates the account owning the token with publicID and deletes
// the token. An expired token is left in place and ErrExpired is returned.
func (s *Service) Confirm(ctx context.Context, publicID int64, now time.Time) (*models.Account, error) {
	var account *models.Account

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		token, err := tx.GetSignupToken(ctx, s.ids.Decode(publicID))
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if s.IsExpired(token, now) {
			return ErrExpired
		}

		if err := tx.ActivateAccount(ctx, token.AccountID, now); err != nil {
			return err
		}
		if err := tx.DeleteSignupToken(ctx, token.ID); err != nil {
			return err
		}

		account, err = tx.GetAccountByID(ctx, token.AccountID)
		return err
	})

	switch {
	case errors.Is(err, ErrNotFound):
		slog.InfoContext(ctx, "confirm_email_unknown", "public_id", publicID)
		return nil, ErrNotFound
	case errors.Is(err, ErrExpired):
		slog.InfoContext(ctx, "confirm_email_expired", "public_id", publicID)
		return nil, ErrExpired
	case err != nil:
		return nil, fmt.Errorf("confirm signup token: %w", err)
	}

	slog.InfoContext(ctx, "confirm_email_success", "account_id", account.ID)
	return account, nil
}

// PurgeExpired deletes every token whose window has elapsed as of now and
// returns the number removed.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.repo.DeleteSignupTokensCreatedBefore(ctx, now.Add(-s.expiry))
	if err != nil {
		return 0, fmt.Errorf("purge signup tokens: %w", err)
	}
	slog.InfoContext(ctx, "signup_tokens_purged", "count", deleted)
	return deleted, nil
}
