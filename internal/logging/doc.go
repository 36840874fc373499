// Package logging provides leveled logging for the clip server.
// The level is read once from the DEBUG / LOG_LEVEL environment
// variables; everything is written through the standard log package
// so output ordering matches the rest of the process.
package logging
