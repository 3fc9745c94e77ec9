// Package content renders the markdown pages shipped with sharpie.
package content

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Page names.
const (
	PageAbout   = "about"
	PageHelp    = "help"
	PageSummary = "summary"
)

// Glamour style names accepted by Renderer.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

//go:embed pages/*.md
var pages embed.FS

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Pages lists the available page names.
func Pages() []string {
	entries, err := pages.ReadDir("pages")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// Page returns the raw markdown of a page.
func Page(name string) (string, error) {
	data, err := pages.ReadFile("pages/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown page %q", name)
	}
	return string(data), nil
}

// Substitute replaces {{name}} placeholders with vars. Unknown placeholders are kept.
func Substitute(md string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(md, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

// Renderer turns pages into terminal output.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer builds a renderer wrapping at width columns.
func NewRenderer(width int, style string) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	if style == "" {
		style = StyleDark
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{term: term}, nil
}

// Render substitutes vars into page name and renders it.
func (r *Renderer) Render(name string, vars map[string]string) (string, error) {
	md, err := Page(name)
	if err != nil {
		return "", err
	}
	out, err := r.term.Render(Substitute(md, vars))
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return out, nil
}
