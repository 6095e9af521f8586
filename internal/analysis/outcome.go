package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NoSectionsMessage is the sentinel returned when the source has no headings.
const NoSectionsMessage = "No sections found in the sue letter."

// Labels of the pairs in an entry's wire form.
const (
	LabelContent = "NDA Content"
	LabelMatch   = "IPC Match"
	LabelError   = "Error"
)

// Result is the correlation for one marker.
type Result struct {
	Marker string
	// Span is the raw target text, newlines included. Empty when not found.
	Span       string
	Commentary string
	Found      bool
	// Failed is set when the reasoning call for a found span did not succeed.
	Failed bool
	// Error holds the placeholder text for markers missing from the target.
	Error string
}

// Outcome maps markers to results in first-seen order, or carries Message
// alone when the source had no markers.
type Outcome struct {
	Message string
	Results []Result
}

// NoSectionsOutcome is the sentinel outcome.
func NoSectionsOutcome() *Outcome {
	return &Outcome{Message: NoSectionsMessage}
}

// IsEmpty reports an outcome with neither entries nor a message.
func (o *Outcome) IsEmpty() bool {
	return o == nil || (len(o.Results) == 0 && o.Message == "")
}

// Markers returns the outcome keys in order.
func (o *Outcome) Markers() []string {
	keys := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		keys = append(keys, r.Marker)
	}
	return keys
}

// Lookup returns the result for marker.
func (o *Outcome) Lookup(marker string) (Result, bool) {
	for _, r := range o.Results {
		if r.Marker == marker {
			return r, true
		}
	}
	return Result{}, false
}

func notFoundMessage(keyword, marker string) string {
	return fmt.Sprintf("%s %s not found in NDA.", keyword, marker)
}

// flatten replaces line feeds with spaces for the wire form.
func flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func (r Result) pairs() [][2]string {
	if !r.Found {
		return [][2]string{{LabelError, r.Error}}
	}
	return [][2]string{
		{LabelContent, flatten(r.Span)},
		{LabelMatch, flatten(r.Commentary)},
	}
}

// MarshalJSON writes an object whose key order is the marker order:
//
//	{"1": [["NDA Content", "..."], ["IPC Match", "..."]], "2": [["Error", "Section 2 not found in NDA."]]}
func (o *Outcome) MarshalJSON() ([]byte, error) {
	if len(o.Results) == 0 {
		return json.Marshal(map[string]string{"message": o.Message})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range o.Results {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Marker)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.pairs())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
