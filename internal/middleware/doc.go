// Package middleware provides the HTTP middleware chain for the admin
// gateway: panic recovery, request correlation, request logging, CORS,
// per-client rate limiting, and request body limits. Middlewares follow
// the func(http.Handler) http.Handler form and are composed outermost
// first in the gateway binary.
package middleware
