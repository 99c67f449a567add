// Package cli implements the lpgrdf command line: argument parsing, the
// configuration file, logging setup, and the mapping of failures to exit
// codes. Each command opens the SQLite store named by the configuration.
package cli
