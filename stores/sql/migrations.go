package sql

import "embed"

// FS embeds both dialects' migration trees so the store never depends
// on migration files being present on disk at runtime.
//
//go:embed migrations
var FS embed.FS
