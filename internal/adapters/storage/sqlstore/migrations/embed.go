package migrations

import "embed"

// FS contiene las migraciones SQL, compatibles con Postgres y SQLite.
//
//go:embed *.sql
var FS embed.FS
