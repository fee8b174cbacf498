// Package config builds the dripvault runtime configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// JSON file, DRIPVAULT_* environment variables and finally command-line
// flags that were set explicitly.
package config
