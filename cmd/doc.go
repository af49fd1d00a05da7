// Package cmd implements the command-line interface for the dDoc distributed
// document store. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - docs: Commands for document store operations (get, create, update, scan, etc.)
//   - serve: Commands for starting and configuring the dDoc server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See ddoc -help for a list of all commands.
package cmd
