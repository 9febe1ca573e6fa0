// Package middleware provides HTTP middleware for the media streamer.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression of API responses (never of media streams)
package middleware
