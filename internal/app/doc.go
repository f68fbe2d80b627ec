// Package app wires application dependencies for the CLI.
//
// It builds the keystore, relay client and high-level services from the
// loaded config, exposing them via the App struct for commands to use.
package app
