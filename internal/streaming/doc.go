// Package streaming is the delivery sink for clip jobs. It wraps an
// http.ResponseWriter with write and idle timeouts, chunked flushing,
// and client-disconnect detection, and exposes DeliverFile for sending
// a finished clip as a download attachment. A delivery ends in exactly
// one of two terminal signals: finished (nil error) or aborted
// (ErrClientGone / timeout errors).
package streaming
