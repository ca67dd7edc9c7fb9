// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/database"
	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"codeberg.org/oliverandrich/accounts-api/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// T0 is the fixed instant test clocks start at.
var T0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// TestPassword is the plain password of accounts created by NewTestAccount.
const TestPassword = "correct-horse-battery-staple-42"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// AccountOption tweaks an account before NewTestAccount stores it.
type AccountOption func(*models.Account)

// Active marks the account as active.
func Active(a *models.Account) { a.IsActive = true }

// Staff marks the account as staff.
func Staff(a *models.Account) { a.IsStaff = true }

// Superuser marks the account as staff and superuser.
func Superuser(a *models.Account) {
	a.IsStaff = true
	a.IsSuperuser = true
}

// NewTestAccount creates an account whose password is TestPassword.
func NewTestAccount(t *testing.T, repo *repository.Repository, email string, opts ...AccountOption) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	account := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    T0,
	}
	for _, opt := range opts {
		opt(account)
	}

	require.NoError(t, repo.CreateAccount(context.Background(), account))
	return account
}

// Clock is a settable time source for services that take a Now func.
type Clock struct {
	T time.Time
}

// NewClock returns a clock set to T0.
func NewClock() *Clock {
	return &Clock{T: T0}
}

// Now returns the current clock value.
func (c *Clock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
