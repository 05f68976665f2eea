package migrations

import "embed"

// Files exposes the audit journal schema migrations, applied in lexicographic order.
//
//go:embed *.sql
var Files embed.FS
