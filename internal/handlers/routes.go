// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/oliverandrich/accounts-api/internal/dispatch"
	"github.com/labstack/echo/v4"
)

// Routes mounts the account endpoints. Every method reaches the endpoint so
// that unsupported ones get a 405 with an Allow header.
func (h *Accounts) Routes(e *echo.Echo, d *dispatch.Dispatcher) {
	mount(e, "/accounts/", d.Endpoint(dispatch.Public, dispatch.Handlers{
		dispatch.Post: h.Create,
	}))
	mount(e, "/accounts/token/", d.Endpoint(dispatch.Public, dispatch.Handlers{
		dispatch.Post: h.ObtainToken,
	}))
	mount(e, "/accounts/token/refresh", d.Endpoint(dispatch.Public, dispatch.Handlers{
		dispatch.Post: h.RefreshToken,
	}))
	mount(e, "/accounts/confirm-email/:public_id", d.Endpoint(dispatch.Public, dispatch.Handlers{
		dispatch.Post: h.ConfirmEmail,
	}))
	mount(e, "/accounts/resend-confirmation", d.Endpoint(dispatch.Public, dispatch.Handlers{
		dispatch.Post: h.ResendConfirmation,
	}))
	mount(e, "/accounts/me", d.Endpoint(dispatch.Authenticated, dispatch.Handlers{
		dispatch.Get: h.Me,
	}))
	mount(e, "/accounts/me/password", d.Endpoint(dispatch.Authenticated, dispatch.Handlers{
		dispatch.Post: h.ChangePassword,
	}))
}

func mount(e *echo.Echo, path string, ep *dispatch.Endpoint) {
	e.Any(path, ep.Handle)
}
