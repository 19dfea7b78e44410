// Package migrations embeds the demo schema and seed data SQL files.
// They are embedded so development seeding works regardless of working
// directory.
package migrations

import "embed"

// FS is the embedded seed filesystem. Files apply in lexical order.
//
//go:embed *.sql
var FS embed.FS
