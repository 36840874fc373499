// Package database persists clip-job history in SQLite: request
// parameters, terminal status, and delivered byte counts. No media
// bytes are ever stored here.
package database
