// Package clipper is the clip-extraction orchestrator. It validates a
// request, resolves the best muxed format, opens the network stream,
// drives the remux process, and delivers the bounded clip to the client,
// guaranteeing single-fire cleanup of the process, the stream, and the
// temp artifact on every path, including client disconnects.
package clipper
