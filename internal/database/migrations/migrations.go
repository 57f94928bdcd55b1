// Package migrations встраивает SQL-миграции в бинарник,
// отдельно для postgres и для sqlite.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
