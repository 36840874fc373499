// Package startup owns process bring-up: environment configuration,
// directory validation (including the process-wide temp root), external
// tool checks, and the structured startup/shutdown log output.
package startup
