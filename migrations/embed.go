// Package migrations embeds the versioned SQL schema files applied by the migration runner.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
