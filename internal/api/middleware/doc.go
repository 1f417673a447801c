// Package middleware provides HTTP middleware for the kernel debug API.
//
// Middleware stack includes:
//   - CORS: Cross-origin access for dashboards reading the debug API
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - GlobalRateLimit: One bucket shared by every client
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
