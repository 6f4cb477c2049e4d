package tools

import (
	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/llm"
)

// Tool is one named capability the agent can invoke.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string
	// Description returns a short description of what this tool does.
	Description() string
	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() map[string]any
	// Spec returns the field-level contract shown to the model.
	Spec() core.ToolSpec
	// Run executes the tool and returns its observation.
	Run(args map[string]any, traceID string) core.Observation
}

// schemaFor builds the wire-format function declaration for a tool.
func schemaFor(t Tool) llm.ToolSchema {
	return llm.ToolSchema{
		Type: "function",
		Function: llm.FunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// Argument extraction helpers. Streamed JSON numbers decode as float64;
// these accept both.

func stringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func intArg(args map[string]any, key string) (int, bool) {
	switch n := args[key].(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func failure(code, message, hint string) core.Observation {
	return core.Observation{OK: false, ErrorCode: code, Message: message, Hint: hint}
}

func success(result any) core.Observation {
	return core.Observation{OK: true, Result: result}
}
