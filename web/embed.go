// Package web provides the embedded HTML templates for the published
// statistics page.
package web

import "embed"

// TemplatesFS contains the embedded HTML templates.
//
//go:embed all:templates
var TemplatesFS embed.FS
