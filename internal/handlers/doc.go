// Package handlers implements the HTTP API: directory browsing, thumbnail
// retrieval and dispatch, the completion event stream, favorites, tags,
// titles, authentication, and health endpoints.
package handlers
