// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
)

// CreateSignupToken inserts a signup token for an account. Returns
// ErrDuplicate when the account already has one.
func (r *Repository) CreateSignupToken(ctx context.Context, accountID int64, createdAt time.Time) (*models.SignupToken, error) {
	token := &models.SignupToken{
		AccountID: accountID,
		CreatedAt: createdAt.UTC(),
	}

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO signup_tokens (account_id, created_at) VALUES (?, ?)`,
		token.AccountID, token.CreatedAt)
	if err != nil {
		return nil, wrapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	token.ID = id
	return token, nil
}

// GetSignupToken retrieves a signup token by ID.
func (r *Repository) GetSignupToken(ctx context.Context, id int64) (*models.SignupToken, error) {
	var token models.SignupToken
	if err := r.q.GetContext(ctx, &token, `SELECT * FROM signup_tokens WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// GetAccountSignupToken retrieves the signup token of an account.
func (r *Repository) GetAccountSignupToken(ctx context.Context, accountID int64) (*models.SignupToken, error) {
	var token models.SignupToken
	if err := r.q.GetContext(ctx, &token, `SELECT * FROM signup_tokens WHERE account_id = ?`, accountID); err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// ListAccountSignupTokens returns all signup tokens of an account.
func (r *Repository) ListAccountSignupTokens(ctx context.Context, accountID int64) ([]models.SignupToken, error) {
	var tokens []models.SignupToken
	if err := r.q.SelectContext(ctx, &tokens, `SELECT * FROM signup_tokens WHERE account_id = ? ORDER BY id`, accountID); err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteSignupToken deletes a token by ID.
func (r *Repository) DeleteSignupToken(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM signup_tokens WHERE id = ?`, id)
	return err
}

// DeleteAccountSignupTokens deletes every token of an account.
func (r *Repository) DeleteAccountSignupTokens(ctx context.Context, accountID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM signup_tokens WHERE account_id = ?`, accountID)
	return err
}

// DeleteSignupTokensCreatedBefore deletes tokens created at or before cutoff
// and returns how many were removed.
func (r *Repository) DeleteSignupTokensCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM signup_tokens WHERE created_at <= ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
