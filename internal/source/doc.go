// Package source opens the network byte stream for a resolved media
// format. It applies the coarse seek (a millisecond begin offset on the
// request) and optional proxy routing; fine-grained trimming is left to
// the transcoder.
package source
