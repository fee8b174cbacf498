// Package cycle persists the single-row scheduler state.
package cycle
