// Package migrations embeds the sqlite schema migrations for the session store.
package migrations

import "embed"

// FS holds the numbered *.up.sql / *.down.sql files read by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
