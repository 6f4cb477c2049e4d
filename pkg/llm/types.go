package llm

// Message is one turn of a conversation. Timestamp is seconds since the
// epoch; zero means unknown.
type Message struct {
	Role       string        `json:"role"` // "system", "user", "assistant", or "tool"
	Content    string        `json:"content"`
	Timestamp  float64       `json:"timestamp,omitempty"`
	ToolCalls  []ToolCallRef `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// ToolCallRef is a fully assembled tool invocation request. Name is never
// empty and Arguments is always a JSON object by the time a ref leaves the
// streaming layer.
type ToolCallRef struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// StreamEvent kinds.
const (
	EventAnswer   = "answer"
	EventThought  = "thought"
	EventToolCall = "tool_call"
	EventError    = "error"
)

// StreamEvent is one normalized unit of model output. Exactly one of the
// payload fields is meaningful for a given Type. A stream never produces
// further events after an error event.
type StreamEvent struct {
	Type     string
	Text     string       // answer, thought, error
	ToolCall *ToolCallRef // tool_call
}

// ChatResponse is the outcome of a full (non-incremental) model turn.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCallRef
}

// ToolSchema is an OpenAI-style function declaration passed in the
// request's tools array.
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema describes one callable function. Parameters is a JSON
// Schema object.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest carries everything one model call needs.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolSchema
	Temperature float64
	Thinking    bool
}

// ChatClient is the capability a model provider must expose. Stream
// delivers events through yield until the stream ends or an error event is
// emitted; Chat blocks for a complete response.
type ChatClient interface {
	Chat(req ChatRequest) (*ChatResponse, error)
	StreamChat(req ChatRequest, yield func(StreamEvent)) error
}

// Config selects and parameterizes a provider. Built once at startup from
// the config file and environment, then passed to constructors.
type Config struct {
	Provider     string  `json:"provider"` // "openai" or "gemini"
	BaseURL      string  `json:"base_url"`
	Model        string  `json:"model"`
	APIKey       string  `json:"api_key"`
	Temperature  float64 `json:"temperature"`
	Thinking     bool    `json:"thinking"`
	TimeoutSecs  int     `json:"timeout_secs"`
	RatePerMin   int     `json:"rate_per_min"`
	TokenURL     string  `json:"token_url,omitempty"`
	ClientID     string  `json:"client_id,omitempty"`
	ClientSecret string  `json:"client_secret,omitempty"`
}

// errorEvent builds the single terminal error event for a stream.
func errorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Text: msg}
}
