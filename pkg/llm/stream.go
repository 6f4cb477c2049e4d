package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Wire shapes for /chat/completions streaming chunks. Fields the
// normalizer does not consume are left undeclared.
type streamChunk struct {
	Error   json.RawMessage `json:"error,omitempty"`
	Choices []streamChoice  `json:"choices"`
}

type streamChoice struct {
	Delta        *wireMessage `json:"delta,omitempty"`
	Message      *wireMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

type wireMessage struct {
	Content          string         `json:"content"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
	ToolCalls        []toolCallWire `json:"tool_calls,omitempty"`
}

type toolCallWire struct {
	Index    *int     `json:"index,omitempty"`
	ID       string   `json:"id,omitempty"`
	Type     string   `json:"type,omitempty"`
	Function funcWire `json:"function"`
}

type funcWire struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// toolFragment buffers one in-flight tool call while its pieces stream in.
type toolFragment struct {
	id   string
	name string
	args strings.Builder
}

// normalizer folds a raw streaming response body into StreamEvents. It
// tolerates malformed individual lines, assembles fragmented tool calls,
// and falls back to whole-document parsing when the body is not SSE.
type normalizer struct {
	yield     func(StreamEvent)
	fragments map[string]*toolFragment
	order     []string
	nextPos   int
	errored   bool
}

func newNormalizer(yield func(StreamEvent)) *normalizer {
	return &normalizer{
		yield:     yield,
		fragments: make(map[string]*toolFragment),
	}
}

// run consumes the body line by line. It returns a non-nil error only when
// the stream ended with a provider or transport failure; the same failure
// is also delivered to the caller as an error event before returning.
func (n *normalizer) run(body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 2*1024*1024)

	var plain []string
	sawSSE := false
	done := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			plain = append(plain, line)
			continue
		}
		sawSSE = true
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			done = true
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Truncated or garbled chunk; skip it and keep reading.
			continue
		}
		if stop := n.handleChunk(&chunk); stop {
			return fmt.Errorf("provider error: %s", providerErrorText(chunk.Error))
		}
	}

	if err := scanner.Err(); err != nil && !done {
		n.emitError(fmt.Sprintf("stream read failed: %v", err))
		return fmt.Errorf("stream read failed: %w", err)
	}

	// Some providers answer a stream:true request with one plain JSON
	// document. Re-parse the buffered non-SSE lines through the same
	// chunk path, but only when no SSE framing ever appeared.
	if !sawSSE && len(plain) > 0 {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(strings.Join(plain, "\n")), &chunk); err != nil {
			n.emitError(fmt.Sprintf("unrecognized response body: %v", err))
			return fmt.Errorf("unrecognized response body: %w", err)
		}
		if stop := n.handleChunk(&chunk); stop {
			return fmt.Errorf("provider error: %s", providerErrorText(chunk.Error))
		}
	}

	n.finalize()
	return nil
}

// handleChunk normalizes one decoded payload. It reports true when the
// payload carried a provider-level error, which terminates the stream.
func (n *normalizer) handleChunk(chunk *streamChunk) bool {
	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		n.emitError(providerErrorText(chunk.Error))
		return true
	}

	for _, choice := range chunk.Choices {
		msg := choice.Delta
		if msg == nil {
			msg = choice.Message
		}
		if msg != nil {
			if msg.ReasoningContent != "" {
				n.yield(StreamEvent{Type: EventThought, Text: msg.ReasoningContent})
			}
			if msg.Content != "" {
				n.yield(StreamEvent{Type: EventAnswer, Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				n.accumulate(tc)
			}
		}
		if choice.FinishReason == "tool_calls" {
			n.finalize()
		}
	}
	return false
}

// accumulate merges one tool-call fragment into its per-key buffer. The
// key prefers the provider's positional index, then the call id, then a
// synthesized position for providers that supply neither.
func (n *normalizer) accumulate(tc toolCallWire) {
	var key string
	switch {
	case tc.Index != nil:
		key = fmt.Sprintf("i:%d", *tc.Index)
	case tc.ID != "":
		key = "id:" + tc.ID
	default:
		key = fmt.Sprintf("p:%d", n.nextPos)
		n.nextPos++
	}

	frag, ok := n.fragments[key]
	if !ok {
		frag = &toolFragment{}
		n.fragments[key] = frag
		n.order = append(n.order, key)
	}
	if tc.ID != "" {
		frag.id = tc.ID
	}
	// Names are occasionally re-delivered whole on a later fragment;
	// only append when the buffer does not already end with the piece.
	if tc.Function.Name != "" && !strings.HasSuffix(frag.name, tc.Function.Name) {
		frag.name += tc.Function.Name
	}
	frag.args.WriteString(tc.Function.Arguments)
}

// finalize converts every buffered fragment into a tool_call event and
// clears the buffer. Fragments that never received a name are dropped.
func (n *normalizer) finalize() {
	for i, key := range n.order {
		frag := n.fragments[key]
		if frag.name == "" {
			continue
		}
		id := frag.id
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		n.yield(StreamEvent{Type: EventToolCall, ToolCall: &ToolCallRef{
			ID:        id,
			Name:      frag.name,
			Arguments: parseArguments(frag.args.String()),
		}})
	}
	n.fragments = make(map[string]*toolFragment)
	n.order = nil
}

func (n *normalizer) emitError(msg string) {
	if n.errored {
		return
	}
	n.errored = true
	n.yield(errorEvent(msg))
}

// providerErrorText extracts a readable message from the error field,
// which providers ship either as a string or as {"message": ...}.
func providerErrorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
