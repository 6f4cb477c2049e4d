// Package core implements the bounded agent loop that turns natural-language
// inventory requests into tool calls and a final answer.
package core

import "github.com/coldframe/frost/pkg/llm"

// Event types emitted during a run.
const (
	EventRunStart  = "run_start"
	EventStepStart = "step_start"
	EventChunk     = "chunk"
	EventToolStart = "tool_start"
	EventToolEnd   = "tool_end"
	EventError     = "error"
	EventFinal     = "final"
	EventFinish    = "finish"
	EventMaxSteps  = "max_steps"
	EventStreamEnd = "stream_end"
)

// Chunk channels.
const (
	ChannelAnswer  = "answer"
	ChannelThought = "thought"
)

// AgentEvent is one state change during a run. Events are delivered via
// callbacks so a UI can render progress live. Fields beyond Type and
// TraceID are populated per event type.
type AgentEvent struct {
	Type    string
	TraceID string
	// Step is the 1-based loop step, zero for run-level events.
	Step int
	// Channel distinguishes answer from thought text on chunk events.
	Channel string
	// Content holds chunk text, the final answer, or an error message.
	Content string
	// Tool call fields, present on tool_start and tool_end.
	ToolCallID  string
	ToolName    string
	ToolArgs    map[string]any
	Observation *Observation
	// History split, present on stream_end.
	Visible  []llm.Message
	Internal []llm.Message
	// Earliest and latest user-turn timestamps, present on stream_end.
	FirstUserTimestamp float64
	LastUserTimestamp  float64
}

// EventCallback receives events as the run progresses.
type EventCallback func(AgentEvent)

// Observation is the result contract every tool returns. It is serialized
// verbatim as the content of the tool-result message fed back to the model.
type Observation struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Hint      string `json:"_hint,omitempty"`
	Result    any    `json:"result,omitempty"`
}

// ToolSpec describes one tool for the runtime-context message so the model
// sees required fields and enum constraints explicitly.
type ToolSpec struct {
	Name        string
	Description string
	Required    []string
	Optional    []string
	Enums       map[string][]string
}

// ToolRunner owns the business logic behind tool names. The loop only
// dispatches by name and relays observations.
type ToolRunner interface {
	ListTools() []string
	ToolSchemas() []llm.ToolSchema
	ToolSpecs() map[string]ToolSpec
	Run(name string, args map[string]any, traceID string) Observation
}

// Error codes the loop itself produces.
const (
	ErrCodeUnknownTool     = "unknown_tool"
	ErrCodeInvalidToolCall = "invalid_tool_call"
	ErrCodeStreamFailed    = "llm_stream_failed"
)
