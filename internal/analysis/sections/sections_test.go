package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// FindMarkers
// ==========================================

func TestFindMarkers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "no markers",
			source: "The defendant breached the agreement.",
			want:   []string{},
		},
		{
			name:   "empty text",
			source: "",
			want:   []string{},
		},
		{
			name:   "order of appearance with duplicates",
			source: "Breach of Section 5 and Section 2, see again Section 5.",
			want:   []string{"5", "2", "5"},
		},
		{
			name:   "newline and tab whitespace",
			source: "Section\n12 and Section\t3",
			want:   []string{"12", "3"},
		},
		{
			name:   "keyword without digits is ignored",
			source: "This Section applies. Section 7 too.",
			want:   []string{"7"},
		},
		{
			name:   "lowercase keyword is not a marker",
			source: "section 4",
			want:   []string{},
		},
		{
			name:   "multi digit",
			source: "Section 10 then Section 9",
			want:   []string{"10", "9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindMarkers(tt.source)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================================
// FindSpan
// ==========================================

func TestFindSpan_Boundaries(t *testing.T) {
	target := "Section 1 Alpha Section 2 Beta"

	assert.Equal(t, "Section 1 Alpha ", FindSpan(target, "1"))
	assert.Equal(t, "Section 2 Beta", FindSpan(target, "2"))
}

func TestFindSpan(t *testing.T) {
	tests := []struct {
		name   string
		target string
		marker string
		want   string
	}{
		{
			name:   "marker absent",
			target: "Section 1 Alpha Section 2 Beta",
			marker: "3",
			want:   "",
		},
		{
			name:   "empty target",
			target: "",
			marker: "1",
			want:   "",
		},
		{
			name:   "prefix number does not match",
			target: "Section 10 Ten Section 11 Eleven",
			marker: "1",
			want:   "",
		},
		{
			name:   "longer number found after shorter",
			target: "Section 1 One Section 10 Ten",
			marker: "10",
			want:   "Section 10 Ten",
		},
		{
			name:   "first occurrence wins",
			target: "Section 3 first Section 4 x Section 3 second",
			marker: "3",
			want:   "Section 3 first ",
		},
		{
			name:   "multiline span keeps newlines",
			target: "Preamble\nSection 1\nConfidential info\nmust stay secret.\nSection 2\nTerm",
			marker: "1",
			want:   "Section 1\nConfidential info\nmust stay secret.\n",
		},
		{
			name:   "bare keyword does not end the span",
			target: "Section 1 see this Section for terms Section 2 end",
			marker: "1",
			want:   "Section 1 see this Section for terms ",
		},
		{
			name:   "quoted heading is a boundary",
			target: `Section 1 the parties cite "Section 5" here Section 2 end`,
			marker: "1",
			want:   `Section 1 the parties cite "`,
		},
		{
			name:   "heading at end of text",
			target: "Intro Section 4",
			marker: "4",
			want:   "Section 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSpan(tt.target, tt.marker))
		})
	}
}

func TestFindSpan_NeverCrossesNextHeading(t *testing.T) {
	target := "Section 1 a Section 2 b Section 3 c Section 4 d"
	ex := New("")

	for _, h := range ex.FindHeadings(target) {
		span := ex.FindSpan(target, h.Marker)
		require.NotEmpty(t, span)
		assert.Len(t, ex.FindMarkers(span), 1, "span %q contains more than one heading", span)
	}
}

// ==========================================
// Extractor
// ==========================================

func TestExtractor_CustomKeyword(t *testing.T) {
	ex := New("Clause")
	assert.Equal(t, "Clause", ex.Keyword())

	target := "Clause 1 Payment. Clause 2 Termination. Section 3 ignored"
	assert.Equal(t, []string{"1", "2"}, ex.FindMarkers(target))
	assert.Equal(t, "Clause 2 Termination. Section 3 ignored", ex.FindSpan(target, "2"))
}

func TestExtractor_KeywordIsLiteral(t *testing.T) {
	ex := New("Art.")
	assert.Equal(t, []string{"4"}, ex.FindMarkers("Art. 4 and Arts 5"))
}

func TestFindHeadings(t *testing.T) {
	headings := New(DefaultKeyword).FindHeadings("x Section 1 y Section 22")
	assert.Equal(t, []Heading{
		{Marker: "1", Start: 2},
		{Marker: "22", Start: 14},
	}, headings)
}

func TestSpanOf_ReusesHeadings(t *testing.T) {
	target := "Section 1 Alpha Section 2 Beta"
	headings := defaultExtractor.FindHeadings(target)

	assert.Equal(t, "Section 1 Alpha ", SpanOf(target, headings, "1"))
	assert.Equal(t, "", SpanOf(target, headings, "9"))
	assert.Equal(t, "", SpanOf(target, nil, "1"))
}
