// Package media produces poster images for videos by fetching the
// source thumbnail and resizing it server-side.
package media
