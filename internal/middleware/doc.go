// Package middleware provides HTTP middleware for the media browser:
// W3C access logging, Prometheus request metrics, and gzip compression.
package middleware
