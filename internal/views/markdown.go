// Package views renders assistant prose for display.
package views

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// RenderMarkdown converts assistant explanation text to sanitized HTML. The
// sanitizer runs after markdown rendering so anything the model smuggles
// into its prose is stripped.
func RenderMarkdown(text string) template.HTML {
	if text == "" {
		return ""
	}
	html := blackfriday.Run([]byte(text),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.Autolink))

	policy := bluemonday.UGCPolicy()
	return template.HTML(policy.SanitizeBytes(html))
}
