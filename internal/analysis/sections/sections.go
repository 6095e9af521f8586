// Package sections locates numbered section headings in plain text.
//
// A heading is the keyword (default "Section") followed by whitespace and
// one or more ASCII digits. Extraction never fails: absence is reported as
// an empty slice or an empty span.
package sections

import (
	"regexp"
)

// DefaultKeyword is the heading keyword used by the package-level helpers.
const DefaultKeyword = "Section"

// Heading is one located heading: its number and the byte offset where the
// keyword starts.
type Heading struct {
	Marker string
	Start  int
}

// Extractor scans text for headings introduced by a fixed keyword.
type Extractor struct {
	keyword string
	pattern *regexp.Regexp
}

// New builds an Extractor for keyword. An empty keyword falls back to DefaultKeyword.
func New(keyword string) *Extractor {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return &Extractor{
		keyword: keyword,
		pattern: regexp.MustCompile(regexp.QuoteMeta(keyword) + `\s+(\d+)`),
	}
}

var defaultExtractor = New(DefaultKeyword)

// Keyword returns the heading keyword.
func (e *Extractor) Keyword() string {
	return e.keyword
}

// FindMarkers returns the number of every heading in source, in order of
// appearance. Duplicates are kept.
func (e *Extractor) FindMarkers(source string) []string {
	matches := e.pattern.FindAllStringSubmatch(source, -1)
	markers := make([]string, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, m[1])
	}
	return markers
}

// FindHeadings returns every heading in text ordered by offset.
func (e *Extractor) FindHeadings(text string) []Heading {
	idx := e.pattern.FindAllStringSubmatchIndex(text, -1)
	headings := make([]Heading, 0, len(idx))
	for _, loc := range idx {
		headings = append(headings, Heading{
			Marker: text[loc[2]:loc[3]],
			Start:  loc[0],
		})
	}
	return headings
}

// FindSpan returns the text of the first heading numbered exactly marker,
// up to but excluding the next heading, or to the end of text. It returns
// "" when no such heading exists.
func (e *Extractor) FindSpan(target, marker string) string {
	return SpanOf(target, e.FindHeadings(target), marker)
}

// SpanOf resolves marker against headings already located in target. Callers
// resolving many markers against one target scan it once with FindHeadings.
func SpanOf(target string, headings []Heading, marker string) string {
	for i, h := range headings {
		if h.Marker != marker {
			continue
		}
		end := len(target)
		if i+1 < len(headings) {
			end = headings[i+1].Start
		}
		return target[h.Start:end]
	}
	return ""
}

// FindMarkers is Extractor.FindMarkers with DefaultKeyword.
func FindMarkers(source string) []string {
	return defaultExtractor.FindMarkers(source)
}

// FindSpan is Extractor.FindSpan with DefaultKeyword.
func FindSpan(target, marker string) string {
	return defaultExtractor.FindSpan(target, marker)
}
