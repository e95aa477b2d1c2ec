// Package cmd implements the command-line interface for the stash key-value
// access layer. It provides a hierarchical command structure with operations
// for working with a configured backend directly from the shell.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, delete, etc.)
//   - lock: Commands for locking operations (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See stash -help for a list of all commands.
package cmd
