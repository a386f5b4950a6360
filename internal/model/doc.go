// Package model defines the domain types and value objects for the
// berth CLI.
//
// This package contains pure data structures with no external dependencies.
// Step states, step results, and deployed-service information are transient
// representations produced by resource checks at runtime — berth keeps no
// state file of its own; the host itself is the source of truth.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
