// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
)

// CreateAccount inserts a new account and sets its ID. Returns ErrDuplicate
// when the email is taken.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = account.CreatedAt

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, is_active, is_staff, is_superuser, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.Email, account.PasswordHash, account.IsActive, account.IsStaff, account.IsSuperuser,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return wrapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

// GetAccountByID retrieves an account by ID.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.q.GetContext(ctx, &account, `SELECT * FROM accounts WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by its email address.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.q.GetContext(ctx, &account, `SELECT * FROM accounts WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// ActivateAccount flips the active flag of an account.
func (r *Repository) ActivateAccount(ctx context.Context, id int64, now time.Time) error {
	return r.updateAccount(ctx, `UPDATE accounts SET is_active = 1, updated_at = ? WHERE id = ?`, now.UTC(), id)
}

// SetAccountRoles sets the staff and superuser flags of an account.
func (r *Repository) SetAccountRoles(ctx context.Context, id int64, staff, superuser bool, now time.Time) error {
	return r.updateAccount(ctx,
		`UPDATE accounts SET is_staff = ?, is_superuser = ?, updated_at = ? WHERE id = ?`,
		staff, superuser, now.UTC(), id)
}

// UpdateAccountPassword replaces the stored password hash.
func (r *Repository) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string, now time.Time) error {
	return r.updateAccount(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now.UTC(), id)
}

// DeleteAccount deletes an account and, by cascade, its signup token.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	return r.updateAccount(ctx, `DELETE FROM accounts WHERE id = ?`, id)
}

func (r *Repository) updateAccount(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
