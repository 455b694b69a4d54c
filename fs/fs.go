package appfs

import "embed"

// FS holds the SQL migrations (one directory per database engine) and the web pages.
//
//go:embed migrations static
var FS embed.FS
