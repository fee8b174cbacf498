// Package cli provides the dripvault command-line client.
//
// It wires configuration, the vault engine and a small cobra command tree:
// one-shot commands (import, today, view, open, delete, status) and an
// interactive shell that keeps the vault unlocked between commands until the
// user locks it or exits. Every command prompts for the password without
// echo and refuses a blank one.
package cli
