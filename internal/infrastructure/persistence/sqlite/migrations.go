package sqlite

import "embed"

// Migrations holds the schema files applied by database.Migrator
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the .sql files
const MigrationsDir = "migrations"
