package analysis

import (
	"bytes"
	"fmt"
	"text/template"
)

// correlationPromptTmpl asks for the penal-code sections relevant to one
// NDA section.
var correlationPromptTmpl = template.Must(template.New("correlation").Parse(
	"Given the following section from an NDA, identify the most relevant section(s) of the Indian Penal Code (IPC) that could be applicable. " +
		"Provide the IPC section number(s) and a brief explanation of why it's relevant:\n\n" +
		"NDA Section: {{.Section}}\n\n" +
		"Relevant IPC Section(s):"))

// RenderPrompt fills the correlation prompt with one span of the target document.
func RenderPrompt(section string) (string, error) {
	var buf bytes.Buffer
	if err := correlationPromptTmpl.Execute(&buf, struct{ Section string }{Section: section}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
