// Package middleware provides HTTP middleware for the upload API.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the caller's user id
//   - Prometheus request metrics labelled by route template
//   - A request body size limit
package middleware
