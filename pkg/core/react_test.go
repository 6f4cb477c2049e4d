package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coldframe/frost/pkg/llm"
)

// scriptedTurn is one canned model response for the fake client.
type scriptedTurn struct {
	answer  string
	thought string
	calls   []llm.ToolCallRef
	fail    string
}

// scriptedClient plays back turns in order, counting model calls.
type scriptedClient struct {
	mu    sync.Mutex
	turns []scriptedTurn
	calls int
}

func (c *scriptedClient) next() scriptedTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.turns) == 0 {
		return scriptedTurn{answer: "out of script"}
	}
	turn := c.turns[0]
	c.turns = c.turns[1:]
	return turn
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *scriptedClient) Chat(req llm.ChatRequest) (*llm.ChatResponse, error) {
	turn := c.next()
	return &llm.ChatResponse{Content: turn.answer, ToolCalls: turn.calls}, nil
}

func (c *scriptedClient) StreamChat(req llm.ChatRequest, yield func(llm.StreamEvent)) error {
	turn := c.next()
	if turn.fail != "" {
		yield(llm.StreamEvent{Type: llm.EventError, Text: turn.fail})
		return nil
	}
	if turn.thought != "" {
		yield(llm.StreamEvent{Type: llm.EventThought, Text: turn.thought})
	}
	// Stream the answer in two pieces when it splits naturally.
	if idx := strings.Index(turn.answer, "|"); idx >= 0 {
		yield(llm.StreamEvent{Type: llm.EventAnswer, Text: turn.answer[:idx]})
		yield(llm.StreamEvent{Type: llm.EventAnswer, Text: turn.answer[idx+1:]})
	} else if turn.answer != "" {
		yield(llm.StreamEvent{Type: llm.EventAnswer, Text: turn.answer})
	}
	for i := range turn.calls {
		yield(llm.StreamEvent{Type: llm.EventToolCall, ToolCall: &turn.calls[i]})
	}
	return nil
}

// fakeRunner records invocations and answers from a canned table.
type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	results map[string]Observation
	delay   time.Duration
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]Observation{}}
}

func (r *fakeRunner) ListTools() []string {
	return []string{"search_records", "list_boxes", "box_layout"}
}

func (r *fakeRunner) ToolSchemas() []llm.ToolSchema {
	return []llm.ToolSchema{{Type: "function", Function: llm.FunctionSchema{
		Name:       "search_records",
		Parameters: map[string]any{"type": "object"},
	}}}
}

func (r *fakeRunner) ToolSpecs() map[string]ToolSpec {
	return map[string]ToolSpec{
		"search_records": {Name: "search_records", Description: "find records", Required: []string{"query"}},
	}
}

func (r *fakeRunner) Run(name string, args map[string]any, traceID string) Observation {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.ran = append(r.ran, name)
	r.mu.Unlock()
	if obs, ok := r.results[name]; ok {
		return obs
	}
	return Observation{OK: true, Result: map[string]any{"tool": name}}
}

func collectEvents(events *[]AgentEvent, mu *sync.Mutex) EventCallback {
	return func(ev AgentEvent) {
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	}
}

func eventsOfType(events []AgentEvent, typ string) []AgentEvent {
	var out []AgentEvent
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestRunToolCallThenFinal(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{calls: []llm.ToolCallRef{{ID: "call_1", Name: "search_records", Arguments: map[string]any{"query": "K562"}}}},
		{answer: "Found 2 vials of K562 in box 1."},
	}}
	runner := newFakeRunner()

	var events []AgentEvent
	var mu sync.Mutex
	result, trace, err := NewAgent(client, runner, Options{}).Run(
		context.Background(), "where is K562?", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.OK {
		t.Error("result.OK = false, want true")
	}
	if result.Final != "Found 2 vials of K562 in box 1." {
		t.Errorf("final = %q", result.Final)
	}
	if result.Steps != 2 {
		t.Errorf("steps = %d, want 2", result.Steps)
	}
	if result.TraceID == "" || result.TraceID != trace.TraceID {
		t.Errorf("trace id mismatch: %q vs %q", result.TraceID, trace.TraceID)
	}

	ends := eventsOfType(events, EventToolEnd)
	if len(ends) != 1 {
		t.Fatalf("tool_end count = %d, want 1", len(ends))
	}
	if !ends[0].Observation.OK {
		t.Error("tool_end observation not ok")
	}
	if len(runner.ran) != 1 || runner.ran[0] != "search_records" {
		t.Errorf("runner invocations = %v", runner.ran)
	}
}

func TestRunUnknownToolResolvedLocally(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{calls: []llm.ToolCallRef{{ID: "call_1", Name: "not_a_real_tool", Arguments: map[string]any{}}}},
		{answer: "That tool does not exist; here is what I can do."},
	}}
	runner := newFakeRunner()

	var events []AgentEvent
	var mu sync.Mutex
	result, _, err := NewAgent(client, runner, Options{}).Run(
		context.Background(), "do the thing", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.OK {
		t.Error("result.OK = false, want true")
	}

	ends := eventsOfType(events, EventToolEnd)
	if len(ends) != 1 {
		t.Fatalf("tool_end count = %d, want 1", len(ends))
	}
	obs := ends[0].Observation
	if obs.ErrorCode != ErrCodeUnknownTool {
		t.Errorf("error_code = %q, want unknown_tool", obs.ErrorCode)
	}
	if obs.Hint == "" {
		t.Error("hint is empty")
	}
	if !strings.Contains(obs.Hint, "search_records") {
		t.Errorf("hint = %q, want valid tool names", obs.Hint)
	}
	if len(runner.ran) != 0 {
		t.Errorf("runner was invoked for unknown tool: %v", runner.ran)
	}
}

func TestRunChunkOrderingAndFinal(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{answer: "Hello| world"},
	}}

	var events []AgentEvent
	var mu sync.Mutex
	result, _, err := NewAgent(client, newFakeRunner(), Options{}).Run(
		context.Background(), "hi", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	chunks := eventsOfType(events, EventChunk)
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if chunks[0].Content != "Hello" || chunks[1].Content != " world" {
		t.Errorf("chunks = %q, %q", chunks[0].Content, chunks[1].Content)
	}
	if chunks[0].Channel != ChannelAnswer {
		t.Errorf("channel = %q, want answer", chunks[0].Channel)
	}
	if result.Final != "Hello world" {
		t.Errorf("final = %q, want %q", result.Final, "Hello world")
	}
}

func TestRunStepBudget(t *testing.T) {
	// A model that always asks for tools never terminates on its own.
	loop := scriptedTurn{calls: []llm.ToolCallRef{{ID: "c", Name: "list_boxes", Arguments: map[string]any{}}}}
	client := &scriptedClient{turns: []scriptedTurn{loop, loop, loop, loop, loop, loop, loop, loop}}

	var events []AgentEvent
	var mu sync.Mutex
	result, _, err := NewAgent(client, newFakeRunner(), Options{MaxSteps: 3}).Run(
		context.Background(), "loop forever", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.OK {
		t.Error("result.OK = true for exhausted budget")
	}
	if len(eventsOfType(events, EventMaxSteps)) != 1 {
		t.Error("no max_steps event emitted")
	}
	if len(eventsOfType(events, EventFinish)) != 0 {
		t.Error("finish emitted alongside max_steps")
	}
	steps := eventsOfType(events, EventStepStart)
	if len(steps) != 3 {
		t.Errorf("step_start count = %d, want 3", len(steps))
	}
}

func TestRunParallelToolDispatch(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{calls: []llm.ToolCallRef{
			{ID: "c1", Name: "search_records", Arguments: map[string]any{}},
			{ID: "c2", Name: "list_boxes", Arguments: map[string]any{}},
			{ID: "c3", Name: "box_layout", Arguments: map[string]any{}},
		}},
		{answer: "done"},
	}}
	runner := newFakeRunner()
	runner.delay = 50 * time.Millisecond

	start := time.Now()
	_, _, err := NewAgent(client, runner, Options{}).Run(
		context.Background(), "three lookups", nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	elapsed := time.Since(start)

	// Serial execution would take at least 150ms.
	if elapsed > 120*time.Millisecond {
		t.Errorf("dispatch took %v, tool calls do not appear parallel", elapsed)
	}
	if len(runner.ran) != 3 {
		t.Errorf("runner invocations = %d, want 3", len(runner.ran))
	}
}

func TestRunStreamFailureTerminates(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{fail: "connection refused"},
	}}

	var events []AgentEvent
	var mu sync.Mutex
	result, _, err := NewAgent(client, newFakeRunner(), Options{}).Run(
		context.Background(), "hi", nil, collectEvents(&events, &mu))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), ErrCodeStreamFailed) {
		t.Errorf("error = %v, want llm_stream_failed", err)
	}
	if result.OK {
		t.Error("result.OK = true after stream failure")
	}
	if len(eventsOfType(events, EventError)) != 1 {
		t.Error("no error event emitted")
	}
	if client.callCount() != 1 {
		t.Errorf("model calls = %d, want 1 (no retry)", client.callCount())
	}
}

func TestRunForcedFinalRetry(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{}, // empty turn: no text, no calls
		{answer: "Here is the summary."},
	}}

	var events []AgentEvent
	var mu sync.Mutex
	result, trace, err := NewAgent(client, newFakeRunner(), Options{}).Run(
		context.Background(), "summarize", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.OK || result.Final != "Here is the summary." {
		t.Errorf("result = %+v", result)
	}

	found := false
	for _, msg := range trace.Messages {
		if msg.Role == "user" && msg.Content == forcedFinalPrompt {
			found = true
		}
	}
	if !found {
		t.Error("forced-final user turn missing from history")
	}
}

func TestRunMalformedArgumentsObservation(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{calls: []llm.ToolCallRef{{ID: "c1", Name: "search_records",
			Arguments: map[string]any{"_raw_arguments": "find K562 please"}}}},
		{answer: "retrying with proper arguments"},
	}}
	runner := newFakeRunner()

	var events []AgentEvent
	var mu sync.Mutex
	_, _, err := NewAgent(client, runner, Options{}).Run(
		context.Background(), "find", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ends := eventsOfType(events, EventToolEnd)
	if len(ends) != 1 {
		t.Fatalf("tool_end count = %d", len(ends))
	}
	if ends[0].Observation.ErrorCode != ErrCodeInvalidToolCall {
		t.Errorf("error_code = %q, want invalid_tool_call", ends[0].Observation.ErrorCode)
	}
	if len(runner.ran) != 0 {
		t.Error("runner invoked for malformed call")
	}
}

func TestRunTerminalEventOrder(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{{answer: "bye"}}}

	var events []AgentEvent
	var mu sync.Mutex
	_, _, err := NewAgent(client, newFakeRunner(), Options{}).Run(
		context.Background(), "bye", nil, collectEvents(&events, &mu))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n := len(events)
	if n < 3 {
		t.Fatalf("event count = %d", n)
	}
	if events[n-3].Type != EventFinal || events[n-2].Type != EventFinish || events[n-1].Type != EventStreamEnd {
		t.Errorf("terminal order = %s, %s, %s", events[n-3].Type, events[n-2].Type, events[n-1].Type)
	}

	end := events[n-1]
	if len(end.Visible) == 0 {
		t.Error("stream_end visible history empty")
	}
	for _, msg := range end.Visible {
		if msg.Role == "system" {
			t.Error("system message in visible history")
		}
	}
	if end.FirstUserTimestamp == 0 || end.LastUserTimestamp < end.FirstUserTimestamp {
		t.Errorf("user timestamps = %f, %f", end.FirstUserTimestamp, end.LastUserTimestamp)
	}
}

func TestTrimConversation(t *testing.T) {
	var history []llm.Message
	history = append(history, llm.Message{Role: "system", Content: "rules"})
	for i := 0; i < 20; i++ {
		history = append(history,
			llm.Message{Role: "user", Content: "q", Timestamp: float64(i)},
			llm.Message{Role: "assistant", Content: "a", Timestamp: float64(i)},
		)
	}
	history = append(history, llm.Message{Role: "assistant", Content: ""})

	trimmed := trimConversation(history, 12)
	if len(trimmed) != 12 {
		t.Fatalf("trimmed length = %d, want 12", len(trimmed))
	}
	for _, msg := range trimmed {
		if msg.Role != "user" && msg.Role != "assistant" {
			t.Errorf("unexpected role %q", msg.Role)
		}
		if msg.Content == "" {
			t.Error("empty message retained")
		}
	}
	// Most recent turns keep their timestamps.
	if trimmed[len(trimmed)-1].Timestamp != 19 {
		t.Errorf("last timestamp = %f, want 19", trimmed[len(trimmed)-1].Timestamp)
	}
}
