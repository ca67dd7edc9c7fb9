// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package dispatch routes a request to the handler registered for its
// method after resolving the caller and checking the endpoint's permission.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/accounts-api/internal/appcontext"
	"codeberg.org/oliverandrich/accounts-api/internal/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/models"
	"github.com/labstack/echo/v4"
)

// Denial messages.
const (
	MsgLoginRequired    = "You must be logged in to perform this action."
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgMethodNotAllowed = "Method not allowed."
)

// HandlerFunc handles one method of an endpoint.
type HandlerFunc func(c *appcontext.Context) error

// Handlers maps methods to their handlers.
type Handlers map[Method]HandlerFunc

// IdentityResolver turns an Authorization header into an account, or nil.
type IdentityResolver interface {
	Resolve(ctx context.Context, header string) *models.Account
}

// Dispatcher builds endpoints sharing one identity resolver.
type Dispatcher struct {
	resolver IdentityResolver
}

// New creates a dispatcher.
func New(resolver IdentityResolver) *Dispatcher {
	return &Dispatcher{resolver: resolver}
}

// Endpoint is a set of method handlers behind one permission.
type Endpoint struct {
	permission Permission
	handlers   Handlers
	allowed    []Method
	allow      string
	resolver   IdentityResolver
}

// Endpoint builds an endpoint. OPTIONS is always available and HEAD is
// derived from GET unless registered explicitly. A nil permission is Public.
func (d *Dispatcher) Endpoint(permission Permission, handlers Handlers) *Endpoint {
	if permission == nil {
		permission = Public
	}

	ep := &Endpoint{
		permission: permission,
		handlers:   make(Handlers, len(handlers)),
		resolver:   d.resolver,
	}
	for m, h := range handlers {
		ep.handlers[m] = h
	}

	names := make([]string, 0, len(methodNames))
	for m := range Method(len(methodNames)) {
		if ep.supports(m) {
			ep.allowed = append(ep.allowed, m)
			names = append(names, m.String())
		}
	}
	ep.allow = strings.Join(names, ", ")
	return ep
}

// Allowed returns the methods the endpoint answers, in declaration order.
func (ep *Endpoint) Allowed() []Method {
	return append([]Method(nil), ep.allowed...)
}

func (ep *Endpoint) supports(m Method) bool {
	if _, ok := ep.handlers[m]; ok {
		return true
	}
	switch m {
	case Options:
		return true
	case Head:
		_, ok := ep.handlers[Get]
		return ok
	}
	return false
}

// Handle is the echo handler for every method routed to the endpoint.
func (ep *Endpoint) Handle(c echo.Context) error {
	req := c.Request()

	handler := ep.handler(req.Method)
	if handler == nil {
		slog.WarnContext(req.Context(), "method_not_allowed", "method", req.Method, "path", req.URL.Path)
		c.Response().Header().Set(echo.HeaderAllow, ep.allow)
		return appcontext.JSONError(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}

	account := ep.resolver.Resolve(req.Context(), req.Header.Get(echo.HeaderAuthorization))

	if !ep.permission(account) {
		if account == nil {
			return appcontext.JSONError(c, http.StatusUnauthorized, MsgLoginRequired)
		}
		return appcontext.JSONError(c, http.StatusForbidden, MsgPermissionDenied)
	}

	c.SetRequest(req.WithContext(auth.WithAccount(req.Context(), account)))
	return handler(&appcontext.Context{Context: c, Account: account})
}

func (ep *Endpoint) handler(method string) HandlerFunc {
	m, ok := ParseMethod(method)
	if !ok {
		return nil
	}
	if h, ok := ep.handlers[m]; ok {
		return h
	}

	switch m {
	case Options:
		return ep.options
	case Head:
		if get, ok := ep.handlers[Get]; ok {
			return headFrom(get)
		}
	}
	return nil
}

func (ep *Endpoint) options(c *appcontext.Context) error {
	names := make([]string, len(ep.allowed))
	for i, m := range ep.allowed {
		names[i] = m.String()
	}
	c.Response().Header().Set(echo.HeaderAllow, ep.allow)
	return c.JSON(http.StatusOK, names)
}

// headFrom runs get with the response body discarded.
func headFrom(get HandlerFunc) HandlerFunc {
	return func(c *appcontext.Context) error {
		res := c.Response()
		w := res.Writer
		res.Writer = discardBody{w}
		defer func() { res.Writer = w }()
		return get(c)
	}
}

type discardBody struct {
	http.ResponseWriter
}

func (d discardBody) Write(b []byte) (int, error) {
	return len(b), nil
}
