// Package app contains the core application logic. It wires configuration,
// logging and the engine stages (extraction, graph building, validation,
// resolution and example checking) into the operations the CLI exposes,
// decoupled from the command-line surface itself.
package app
