// Package migrations embeds the goose migrations of the local inspection
// database.
package migrations

import "embed"

// Migrations contains the goose SQL files applied when the store opens.
//
//go:embed *.sql
var Migrations embed.FS
