// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provisions accounts and exchanges credentials for tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"codeberg.org/oliverandrich/accounts-api/internal/repository"
	"codeberg.org/oliverandrich/accounts-api/internal/services/signup"
	"codeberg.org/oliverandrich/accounts-api/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrConflict is returned when an account with the email already exists.
	ErrConflict = errors.New("account already exists")
	// ErrUnauthorized is returned for any credential or token failure.
	ErrUnauthorized = errors.New("invalid credentials")
)

// Validation messages.
const (
	MsgInvalidEmail    = "Invalid email address"
	MsgInvalidPassword = "Invalid password"
)

// ValidationError describes rejected client input.
type ValidationError struct {
	Message string
	Notes   []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidPassword(result ValidationResult) *ValidationError {
	pwErr := &PasswordValidationError{Errors: result.Errors}
	return &ValidationError{Message: MsgInvalidPassword, Notes: pwErr.Messages()}
}

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Mailer sends the email confirmation message.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

type Service struct {
	repo              *repository.Repository
	tokens            *token.Codec
	signup            *signup.Service
	mailer            Mailer
	passwordValidator *PasswordValidator

	// HashCost is the bcrypt cost for new password hashes.
	HashCost int
	// Now is the clock used for timestamps.
	Now func() time.Time
}

func NewService(repo *repository.Repository, tokens *token.Codec, signupTokens *signup.Service, mailer Mailer) *Service {
	return &Service{
		repo:              repo,
		tokens:            tokens,
		signup:            signupTokens,
		mailer:            mailer,
		passwordValidator: DefaultPasswordValidator(),
		HashCost:          bcrypt.DefaultCost,
		Now:               time.Now,
	}
}

// PasswordValidator returns the password validator
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// SetPasswordValidator replaces the password rules.
func (s *Service) SetPasswordValidator(v *PasswordValidator) {
	s.passwordValidator = v
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return &ValidationError{Message: MsgInvalidEmail}
	}
	return nil
}

// Signup creates an inactive account, issues its signup token and sends the
// confirmation link.
func (s *Service) Signup(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.CreateAccount(ctx, CreateAccountParams{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	signupToken, err := s.signup.Issue(ctx, account)
	if err != nil {
		return nil, err
	}

	link := s.signup.Link(signupToken)
	if err := s.mailer.SendConfirmation(ctx, account.Email, link); err != nil {
		slog.ErrorContext(ctx, "confirmation_email_failed", "account_id", account.ID, "error", err)
	}

	slog.InfoContext(ctx, "signup_success", "account_id", account.ID, "email", account.Email)
	return account, nil
}

// ResendConfirmation replaces the signup token of an inactive account and
// sends a new link. Active or unknown accounts are ignored and a failed
// delivery is only logged.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	account, err := s.repo.GetAccountByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account.IsActive {
		return nil
	}

	signupToken, err := s.signup.Issue(ctx, account)
	if err != nil {
		return err
	}
	if err := s.mailer.SendConfirmation(ctx, account.Email, s.signup.Link(signupToken)); err != nil {
		slog.ErrorContext(ctx, "confirmation_email_failed", "account_id", account.ID, "error", err)
	}

	slog.InfoContext(ctx, "confirmation_resent", "account_id", account.ID)
	return nil
}

// CreateAccountParams holds the parameters for account creation
type CreateAccountParams struct {
	Email     string
	Password  string
	Active    bool
	Staff     bool
	Superuser bool
}

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error) {
	email := NormalizeEmail(params.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	validation := s.passwordValidator.Validate(params.Password, email)
	if !validation.Valid {
		return nil, invalidPassword(validation)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: string(passwordHash),
		IsActive:     params.Active,
		IsStaff:      params.Staff || params.Superuser,
		IsSuperuser:  params.Superuser,
		CreatedAt:    s.Now().UTC(),
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.WarnContext(ctx, "signup_conflict", "email", email)
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate returns the active account matching email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = NormalizeEmail(email)

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.WarnContext(ctx, "login_failed", "email", email, "reason", "account_not_found")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrUnauthorized
	}

	if !account.IsActive {
		slog.WarnContext(ctx, "login_failed", "email", email, "reason", "inactive")
		return nil, ErrUnauthorized
	}

	return account, nil
}

// ObtainTokens exchanges credentials for a fresh token pair.
func (s *Service) ObtainTokens(ctx context.Context, email, password string) (token.Pair, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return token.Pair{}, err
	}

	pair, err := s.tokens.Pair(account.Email, s.Now())
	if err != nil {
		return token.Pair{}, err
	}

	slog.InfoContext(ctx, "login_success", "account_id", account.ID, "email", account.Email)
	return pair, nil
}

// RefreshTokens exchanges a refresh token for a fresh token pair. The
// refresh token must belong to an existing account.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (token.Pair, error) {
	now := s.Now()

	claims, err := s.tokens.Verify(refreshToken, now)
	if err != nil {
		slog.WarnContext(ctx, "refresh_failed", "reason", "invalid_token")
		return token.Pair{}, ErrUnauthorized
	}
	if claims.Kind != token.KindRefresh {
		slog.WarnContext(ctx, "refresh_failed", "reason", "not_a_refresh_token", "email", claims.Email)
		return token.Pair{}, ErrUnauthorized
	}

	account, err := s.repo.GetAccountByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.WarnContext(ctx, "refresh_failed", "reason", "account_not_found", "email", claims.Email)
			return token.Pair{}, ErrUnauthorized
		}
		return token.Pair{}, fmt.Errorf("failed to get account: %w", err)
	}

	return s.tokens.Pair(account.Email, now)
}

// ChangePassword changes an account's password when the current one is known
func (s *Service) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrUnauthorized
	}

	validation := s.passwordValidator.Validate(newPassword, account.Email)
	if !validation.Valid {
		return invalidPassword(validation)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.HashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateAccountPassword(ctx, accountID, string(passwordHash), s.Now()); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
