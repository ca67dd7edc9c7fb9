// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context handed to endpoint
// handlers and the uniform JSON error body.
package appcontext

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"github.com/labstack/echo/v4"
)

// ErrMalformedBody is returned by DecodeBody when the request body is not
// valid JSON for the destination.
var ErrMalformedBody = errors.New("malformed request body")

// Context is a custom Echo context carrying the resolved account.
type Context struct {
	echo.Context
	Account *models.Account // nil if anonymous
}

// GetAccount returns the authenticated account, or nil if anonymous.
func (c *Context) GetAccount() *models.Account {
	return c.Account
}

// IsAuthenticated returns true if the request carries a known account.
func (c *Context) IsAuthenticated() bool {
	return c.Account != nil
}

// DecodeBody decodes the JSON request body into dst using the Echo JSON
// serializer. Every failure, including an empty body, is ErrMalformedBody.
func (c *Context) DecodeBody(dst any) error {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return ErrMalformedBody
	}

	if err := c.Echo().JSONSerializer.Deserialize(c, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrMalformedBody
		}
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

// ErrorDetail is the inner object of the uniform error body.
type ErrorDetail struct {
	Message string   `json:"message"`
	Notes   []string `json:"notes,omitempty"`
}

// ErrorResponse is the uniform error body {"error": {"message": ...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSONError writes the uniform error body with the given status.
func JSONError(c echo.Context, status int, message string, notes ...string) error {
	return c.JSON(status, ErrorResponse{Error: ErrorDetail{Message: message, Notes: notes}})
}
