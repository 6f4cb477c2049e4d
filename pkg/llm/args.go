package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// parseArguments turns streamed argument text into a JSON object. Models
// routinely emit truncated or lightly malformed JSON, so parsing runs a
// repair ladder and never discards the text: the last resort wraps it
// verbatim under "_raw_arguments".
func parseArguments(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}
	}

	if obj, ok := decodeObject(text); ok {
		return obj
	}

	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		if obj, ok := decodeObject(repaired); ok {
			return obj
		}
	}

	// Brace scan: some providers pad the object with stray prose or
	// framing. This accepts anything brace-balanced between the first
	// "{" and the last "}", so the result is best-effort only.
	if scanned, ok := braceScan(text); ok {
		if obj, ok := decodeObject(scanned); ok {
			return obj
		}
	}

	return map[string]any{"_raw_arguments": text}
}

// decodeObject parses text and reports whether it is a JSON object.
// Bare scalars and arrays are rejected; a tool call's arguments must be
// an object to be actionable.
func decodeObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, true
}

func braceScan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
