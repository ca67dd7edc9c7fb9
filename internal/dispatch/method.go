// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package dispatch

import "net/http"

// Method is an HTTP method an endpoint can register a handler for.
// Declaration order is the order used in Allow headers.
type Method int

const (
	Connect Method = iota
	Delete
	Get
	Head
	Options
	Patch
	Post
	Put
	Trace
)

var methodNames = [...]string{
	Connect: http.MethodConnect,
	Delete:  http.MethodDelete,
	Get:     http.MethodGet,
	Head:    http.MethodHead,
	Options: http.MethodOptions,
	Patch:   http.MethodPatch,
	Post:    http.MethodPost,
	Put:     http.MethodPut,
	Trace:   http.MethodTrace,
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}

// ParseMethod maps a request method to a Method. Methods are case-sensitive.
func ParseMethod(s string) (Method, bool) {
	for m, name := range methodNames {
		if name == s {
			return Method(m), true
		}
	}
	return 0, false
}
