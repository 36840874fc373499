// Package transcoder drives the external ffmpeg process that remuxes a
// bounded window of a live network stream into a self-contained MP4.
// Codecs are copied, never re-encoded; timestamps are normalized and the
// container index is front-loaded so the clip plays progressively.
//
// A Job is Created, runs to Completed or Failed exactly once, and can be
// force-terminated at any point by the owning job's janitor.
package transcoder
