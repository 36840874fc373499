// Package handlers implements the HTTP API: clip extraction, video
// metadata, poster images, job history, and health/version endpoints.
// Handlers translate pipeline errors into HTTP status codes; once clip
// bytes are on the wire, errors can only be logged and recorded.
package handlers
