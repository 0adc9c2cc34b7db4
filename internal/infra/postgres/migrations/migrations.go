package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change; each file registers one migration
// and bun names it after that file.
var Migrations = migrate.NewMigrations()
