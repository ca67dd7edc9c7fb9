// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the HTTP endpoints of the accounts API.
package handlers

import (
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/accounts-api/internal/repository"
	"github.com/labstack/echo/v4"
)

// Handlers contains the operational endpoints.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health returns the health status. The database must answer a ping.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
		slog.ErrorContext(c.Request().Context(), "health_check_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
