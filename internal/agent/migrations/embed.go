// Package migrations embeds the schema of the asset snapshot database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
