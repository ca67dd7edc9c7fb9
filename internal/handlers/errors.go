// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/accounts-api/internal/appcontext"
	"codeberg.org/oliverandrich/accounts-api/internal/dispatch"
	"github.com/labstack/echo/v4"
)

// MsgInternalError is the body of every unexpected failure.
const MsgInternalError = "Internal server error."

// serverError logs err and writes the generic 500 body.
func serverError(c echo.Context, event string, err error) error {
	slog.ErrorContext(c.Request().Context(), event,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)
	return appcontext.JSONError(c, http.StatusInternalServerError, MsgInternalError)
}

// ErrorHandler renders errors that escape a handler, such as unknown routes
// or oversized bodies, with the uniform error body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := MsgInternalError

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(he.Code) + "."
		if m, ok := he.Message.(string); ok && he.Code != http.StatusInternalServerError {
			message = m
		}
		if he.Code == http.StatusMethodNotAllowed {
			message = dispatch.MsgMethodNotAllowed
		}
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request_failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = appcontext.JSONError(c, status, message)
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "error_response_failed", "error", fmt.Errorf("status %d: %w", status, writeErr))
	}
}
