// Package middleware holds the gin middleware mounted in front of the API
// routes: rate limiting, security headers, body size limit, operator
// sanitizing, parameter-pollution protection, request logging and metrics.
package middleware
