// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as
// API key checks on write endpoints, request logging, CORS, rate
// limiting, tracing and panic recovery.
package middleware
