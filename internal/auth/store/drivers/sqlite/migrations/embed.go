// Package migrations embeds the sqlite schema migration files so the binary
// can self-migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
