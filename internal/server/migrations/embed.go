// Package migrations contains embedded goose migrations for the PostgreSQL
// account directory.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
