package dashboard

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown converts assistant output to styled ANSI text wrapped at
// width. It falls back to the raw text if rendering fails.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
