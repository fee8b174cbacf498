// Package migrations embeds the goose SQL migrations for every supported
// dialect. Each dialect lives in its own directory named after it.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS
