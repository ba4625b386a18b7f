package migrations

import "embed"

// Migrations holds the SQL schema migrations applied by golang-migrate.
//
//go:embed *.sql
var Migrations embed.FS
