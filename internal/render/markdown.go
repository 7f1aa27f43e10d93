// Package render turns summary text from the summarization service into
// safe HTML for the page.
package render

import (
	"bytes"
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"brevio/web/internal/logger"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()
)

// Markdown converts src to sanitized HTML. Conversion failures fall back to
// escaped plain text.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		logger.Warn("markdown render failed", "module", "render", "action", "render", "resource", "summary", "result", "failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Plain strips any markup from s for terminal output.
func Plain(s string) string {
	return html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s))
}
