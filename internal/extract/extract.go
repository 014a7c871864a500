// Package extract locates a day's menu text inside a dining page and cuts the
// configured section out of it.
//
// Matching runs on the page's visible text only. The day span starts right after
// the first occurrence of the target day name and ends before the next day name
// (or at the end of the text). The section pattern is then applied inside that span.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/lunchmenu/internal/menu"
)

const (
	// DefaultDayPattern matches any day-of-week name.
	DefaultDayPattern = `(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)`
	// DefaultSectionPattern captures the text after "Lunch" up to "salad bar" or the end of the span.
	DefaultSectionPattern = `Lunch(.*?)(?:salad bar|$)`
	// DefaultSectionName labels the section produced by DefaultSectionPattern.
	DefaultSectionName = "Lunch"
)

// flags applied to every configured pattern: case-insensitive, dot matches newline.
const flags = "(?is)"

// Patterns holds the configurable pattern set.
type Patterns struct {
	Day         string
	Section     string
	SectionName string
}

// Extractor implements menu.Extractor over regular expressions.
type Extractor struct {
	dayBoundary *regexp.Regexp
	section     *regexp.Regexp
	sectionName string
}

// New compiles the pattern set. Empty fields fall back to the defaults.
func New(p Patterns) (*Extractor, error) {
	if strings.TrimSpace(p.Day) == "" {
		p.Day = DefaultDayPattern
	}
	if strings.TrimSpace(p.Section) == "" {
		p.Section = DefaultSectionPattern
	}
	if strings.TrimSpace(p.SectionName) == "" {
		p.SectionName = DefaultSectionName
	}
	dayRe, err := Compile(p.Day)
	if err != nil {
		return nil, fmt.Errorf("day pattern: %w", err)
	}
	sectionRe, err := Compile(p.Section)
	if err != nil {
		return nil, fmt.Errorf("section pattern: %w", err)
	}
	if sectionRe.NumSubexp() < 1 {
		return nil, fmt.Errorf("section pattern %q must contain a capture group", p.Section)
	}
	return &Extractor{
		dayBoundary: dayRe,
		section:     sectionRe,
		sectionName: p.SectionName,
	}, nil
}

// Compile builds a pattern with the extractor's matching flags.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	return re, nil
}

// Extract returns the configured section for day, or an error wrapping menu.ErrExtractionMiss.
// Markup that cannot be parsed yields a plain error.
func (e *Extractor) Extract(markup []byte, day string) ([]menu.Section, error) {
	text, err := VisibleText(markup)
	if err != nil {
		return nil, err
	}
	span, ok := e.daySpan(text, day)
	if !ok {
		return nil, fmt.Errorf("%w: %q", menu.ErrDayNotFound, day)
	}
	m := e.section.FindStringSubmatch(span)
	if m == nil {
		return nil, fmt.Errorf("%w: day %q", menu.ErrSectionNotFound, day)
	}
	return []menu.Section{{
		Name:    e.sectionName,
		RawText: strings.TrimSpace(m[1]),
	}}, nil
}

func (e *Extractor) daySpan(text, day string) (string, bool) {
	if strings.TrimSpace(day) == "" {
		return "", false
	}
	dayRe := regexp.MustCompile(flags + regexp.QuoteMeta(day))
	loc := dayRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if next := e.dayBoundary.FindStringIndex(rest); next != nil {
		return rest[:next[0]], true
	}
	return rest, true
}

// VisibleText flattens markup into the text a browser would show. Script, style,
// noscript and template contents are dropped and entities are decoded.
func VisibleText(markup []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc.Text(), nil
}
