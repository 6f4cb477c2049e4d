package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// HighlightJSON takes a JSON string, validates it, and returns a
// syntax-highlighted pretty-printed rendering. Non-JSON input is returned
// unchanged.
func HighlightJSON(input string) string {
	var js interface{}
	if json.Unmarshal([]byte(input), &js) != nil {
		return input
	}

	var sb strings.Builder
	sb.WriteString("```json\n")

	// Re-encode so even minified JSON comes out indented
	pretty, err := json.MarshalIndent(js, "", "  ")
	if err == nil {
		sb.Write(pretty)
	} else {
		sb.WriteString(input)
	}

	sb.WriteString("\n```")

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return input
	}

	out, err := renderer.Render(sb.String())
	if err != nil {
		return input
	}

	return strings.TrimSpace(out)
}
