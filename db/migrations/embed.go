// Package migrations embeds the goose SQL migrations so binaries can run them
// without shipping the directory alongside.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
