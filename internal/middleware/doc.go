// Package middleware provides the HTTP middleware chain for the clip
// server: W3C Extended Log Format request logging, Prometheus metrics
// collection, and gzip compression for the JSON API surface (media
// responses bypass compression).
package middleware
