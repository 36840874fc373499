// Package resolver turns a video identifier into metadata and a list of
// playable formats by shelling out to yt-dlp, and selects the best format
// that carries both audio and video for remuxing.
package resolver
