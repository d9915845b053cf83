// Package cli wires the refresh and schedule-sync pipelines into cobra
// commands. Each binary under cmd/ is a thin wrapper around one of the
// Execute* entry points here.
package cli
