// Package render builds the self-contained HTML document shown on the ambient display.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/JakeFAU/lunchmenu/internal/menu"
)

// Placeholder is shown when no section could be extracted.
const Placeholder = "No menu information available at this time."

var (
	blankLines = regexp.MustCompile(`\n\s*\n+`)
	hspace     = regexp.MustCompile(`[ \t]+`)
	escaper    = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

type sectionView struct {
	Name  string
	Items []string
}

type pageView struct {
	Timestamp   string
	Sections    []sectionView
	Placeholder string
}

// Renderer implements menu.Renderer with a fixed page layout.
type Renderer struct {
	page *template.Template
}

// New parses the page template.
func New() *Renderer {
	return &Renderer{page: template.Must(template.New("page").Parse(pageTemplate))}
}

// Render returns the full document for sections. Output depends only on its arguments.
func (r *Renderer) Render(sections []menu.Section, timestamp string) ([]byte, error) {
	view := pageView{Timestamp: Escape(timestamp)}
	for _, s := range sections {
		view.Sections = append(view.Sections, sectionView{
			Name:  Escape(s.Name),
			Items: Lines(s.RawText),
		})
	}
	if len(view.Sections) == 0 {
		view.Placeholder = Placeholder
	}
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

// Lines normalises raw section text into escaped, non-empty display rows.
func Lines(raw string) []string {
	cleaned := blankLines.ReplaceAllString(raw, "\n")
	cleaned = hspace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, Escape(line))
	}
	return lines
}

// Escape replaces &, < and > with their entities. No other characters are touched.
func Escape(s string) string {
	return escaper.Replace(s)
}
