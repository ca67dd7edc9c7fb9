// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/appcontext"
	"codeberg.org/oliverandrich/accounts-api/internal/services/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/services/signup"
)

// Response messages.
const (
	MsgOK                 = "OK"
	MsgInvalidJSON        = "Invalid JSON"
	MsgValidationFailed   = "Validation failed"
	MsgInvalidCredentials = "Invalid credentials."
	MsgInvalidToken       = "Invalid token."
	MsgAccountExists      = "An account with this email address already exists."
	MsgWrongPassword      = "Current password is incorrect."
)

// Accounts contains the account endpoints.
type Accounts struct {
	service *auth.Service
	signup  *signup.Service

	// Now is the clock used to judge signup token expiry.
	Now func() time.Time
}

// NewAccounts creates the account endpoints.
func NewAccounts(service *auth.Service, signupTokens *signup.Service) *Accounts {
	return &Accounts{
		service: service,
		signup:  signupTokens,
		Now:     time.Now,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// credentialsRequest is the body of signup and token requests. Pointers tell
// a missing field from an empty one.
type credentialsRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r *credentialsRequest) complete() bool {
	return r.Email != nil && r.Password != nil
}

// Create signs up a new, inactive account and mails its confirmation link.
func (h *Accounts) Create(c *appcontext.Context) error {
	var req credentialsRequest
	if err := c.DecodeBody(&req); err != nil {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgInvalidJSON)
	}
	if !req.complete() {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgValidationFailed)
	}

	_, err := h.service.Signup(c.Request().Context(), *req.Email, *req.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			return appcontext.JSONError(c, http.StatusBadRequest, verr.Message, verr.Notes...)
		case errors.Is(err, auth.ErrConflict):
			return appcontext.JSONError(c, http.StatusConflict, MsgAccountExists)
		default:
			return serverError(c, "signup_failed", err)
		}
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: MsgOK})
}

// ObtainToken exchanges email and password for a token pair.
func (h *Accounts) ObtainToken(c *appcontext.Context) error {
	var req credentialsRequest
	if err := c.DecodeBody(&req); err != nil || !req.complete() {
		return appcontext.JSONError(c, http.StatusUnauthorized, MsgInvalidCredentials)
	}

	pair, err := h.service.ObtainTokens(c.Request().Context(), *req.Email, *req.Password)
	if errors.Is(err, auth.ErrUnauthorized) {
		return appcontext.JSONError(c, http.StatusUnauthorized, MsgInvalidCredentials)
	}
	if err != nil {
		return serverError(c, "obtain_token_failed", err)
	}

	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Token *string `json:"token"`
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *Accounts) RefreshToken(c *appcontext.Context) error {
	var req refreshRequest
	if err := c.DecodeBody(&req); err != nil || req.Token == nil {
		return appcontext.JSONError(c, http.StatusUnauthorized, MsgInvalidCredentials)
	}

	pair, err := h.service.RefreshTokens(c.Request().Context(), *req.Token)
	if errors.Is(err, auth.ErrUnauthorized) {
		return appcontext.JSONError(c, http.StatusUnauthorized, MsgInvalidCredentials)
	}
	if err != nil {
		return serverError(c, "refresh_token_failed", err)
	}

	return c.JSON(http.StatusOK, pair)
}

// ConfirmEmail activates the account behind a signup token.
func (h *Accounts) ConfirmEmail(c *appcontext.Context) error {
	publicID, err := strconv.ParseInt(c.Param("public_id"), 10, 64)
	if err != nil {
		return appcontext.JSONError(c, http.StatusNotFound, MsgInvalidToken)
	}

	_, err = h.signup.Confirm(c.Request().Context(), publicID, h.Now())
	switch {
	case errors.Is(err, signup.ErrNotFound):
		return appcontext.JSONError(c, http.StatusNotFound, MsgInvalidToken)
	case errors.Is(err, signup.ErrExpired):
		return appcontext.JSONError(c, http.StatusUnauthorized, MsgInvalidToken)
	case err != nil:
		return serverError(c, "confirm_email_failed", err)
	}

	return c.NoContent(http.StatusNoContent)
}

type resendRequest struct {
	Email *string `json:"email"`
}

// ResendConfirmation mails a fresh confirmation link. The answer is the same
// whether or not the address belongs to an inactive account.
func (h *Accounts) ResendConfirmation(c *appcontext.Context) error {
	var req resendRequest
	if err := c.DecodeBody(&req); err != nil {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgInvalidJSON)
	}
	if req.Email == nil {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgValidationFailed)
	}

	if err := h.service.ResendConfirmation(c.Request().Context(), *req.Email); err != nil {
		return serverError(c, "resend_confirmation_failed", err)
	}

	return c.JSON(http.StatusAccepted, messageResponse{Message: MsgOK})
}

// Me returns the calling account.
func (h *Accounts) Me(c *appcontext.Context) error {
	return c.JSON(http.StatusOK, c.GetAccount())
}

type changePasswordRequest struct {
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

// ChangePassword replaces the calling account's password.
func (h *Accounts) ChangePassword(c *appcontext.Context) error {
	var req changePasswordRequest
	if err := c.DecodeBody(&req); err != nil {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgInvalidJSON)
	}
	if req.CurrentPassword == nil || req.NewPassword == nil {
		return appcontext.JSONError(c, http.StatusBadRequest, MsgValidationFailed)
	}

	account := c.GetAccount()
	err := h.service.ChangePassword(c.Request().Context(), account.ID, *req.CurrentPassword, *req.NewPassword)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			return appcontext.JSONError(c, http.StatusBadRequest, verr.Message, verr.Notes...)
		case errors.Is(err, auth.ErrUnauthorized):
			return appcontext.JSONError(c, http.StatusBadRequest, MsgWrongPassword)
		default:
			return serverError(c, "change_password_failed", err)
		}
	}

	slog.InfoContext(c.Request().Context(), "password_changed", "account_id", account.ID)
	return c.NoContent(http.StatusNoContent)
}
