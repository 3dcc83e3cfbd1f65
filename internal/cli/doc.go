// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It maps
// the cobra command tree onto the operations of the app package.
package cli
