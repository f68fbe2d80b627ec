// Package commands defines the hushwire CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init         Create the local identity
//   - fingerprint  Print the identity fingerprint
//   - register     Publish your prekey bundle and one-time prekeys to a relay
//   - send         Encrypt and send a message
//   - recv         Fetch and decrypt queued messages
//   - listen       Stream and decrypt messages as they arrive
//   - sessions     List established sessions
//
// # Implementation
//
// The root command loads the TOML config from the home directory, applies
// flag overrides, and builds the dependency graph (keystore, services,
// relay client) before any subcommand runs. Commands that talk to the
// relay check for one and fail with a hint instead of a nil deref.
package commands
