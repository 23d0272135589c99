package templates

import "embed"

// EmbeddedTemplates provides read-only access to the card and page templates compiled into the binary.
//
//go:embed *.tmpl
var EmbeddedTemplates embed.FS
