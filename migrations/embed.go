// Package migrations embeds the SQL schema so the server and cmd/migrate run
// the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
