package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/coldframe/frost/pkg/llm"
)

// forcedFinalPrompt is injected once per run when the model returns
// neither text nor tool calls.
const forcedFinalPrompt = "Please give a concise final answer to the request above."

// Run executes one bounded reason-act cycle for the given input. The
// caller-supplied history is trimmed to recent conversational turns before
// the run; events are delivered through callback as they occur. The
// returned trace holds the full message and event record.
func (a *Agent) Run(ctx context.Context, input string, prior []llm.Message, callback EventCallback) (*RunResult, *Trace, error) {
	if callback == nil {
		callback = func(AgentEvent) {}
	}
	trace := newTrace()
	emit := func(ev AgentEvent) {
		ev.TraceID = trace.TraceID
		trace.record(ev)
		callback(ev)
	}

	trimmed := trimConversation(prior, a.opts.HistoryTurns)
	messages := []llm.Message{
		{Role: "system", Content: a.buildSystemPrompt()},
		{Role: "system", Content: a.buildToolContext()},
	}
	messages = append(messages, trimmed...)
	messages = append(messages, llm.Message{Role: "user", Content: input, Timestamp: nowTimestamp()})

	emit(AgentEvent{Type: EventRunStart})

	tools := a.runner.ToolSchemas()
	known := make(map[string]bool)
	for _, name := range a.runner.ListTools() {
		known[name] = true
	}

	forcedFinal := false
	exhausted := false
	lastText := ""
	steps := 0

	for step := 1; step <= a.opts.MaxSteps; step++ {
		steps = step
		select {
		case <-ctx.Done():
			emit(AgentEvent{Type: EventError, Step: step, Content: ctx.Err().Error()})
			return a.failResult(trace, messages, steps, len(trimmed)), trace, ctx.Err()
		default:
		}

		emit(AgentEvent{Type: EventStepStart, Step: step})

		var answer, thought strings.Builder
		var calls []llm.ToolCallRef
		streamFailure := ""

		err := a.client.StreamChat(llm.ChatRequest{
			Messages:    messages,
			Tools:       tools,
			Temperature: a.opts.Temperature,
		}, func(ev llm.StreamEvent) {
			switch ev.Type {
			case llm.EventAnswer:
				answer.WriteString(ev.Text)
				emit(AgentEvent{Type: EventChunk, Step: step, Channel: ChannelAnswer, Content: ev.Text})
			case llm.EventThought:
				thought.WriteString(ev.Text)
				emit(AgentEvent{Type: EventChunk, Step: step, Channel: ChannelThought, Content: ev.Text})
			case llm.EventToolCall:
				if ev.ToolCall != nil {
					calls = append(calls, *ev.ToolCall)
				}
			case llm.EventError:
				streamFailure = ev.Text
			}
		})
		if streamFailure == "" && err != nil {
			streamFailure = err.Error()
		}
		if streamFailure != "" {
			emit(AgentEvent{Type: EventError, Step: step, Content: streamFailure})
			return a.failResult(trace, messages, steps, len(trimmed)), trace,
				fmt.Errorf("%s: %s", ErrCodeStreamFailed, streamFailure)
		}

		text := strings.TrimSpace(answer.String())

		if len(calls) > 0 {
			messages = append(messages, llm.Message{
				Role:      "assistant",
				Content:   answer.String(),
				ToolCalls: calls,
				Timestamp: nowTimestamp(),
			})

			observations := a.dispatch(calls, step, known, trace.TraceID, emit)
			for i, call := range calls {
				messages = append(messages, llm.Message{
					Role:       "tool",
					Content:    serializeObservation(observations[i]),
					ToolCallID: call.ID,
					Timestamp:  nowTimestamp(),
				})
			}
			lastText = text
			continue
		}

		if text != "" {
			messages = append(messages, llm.Message{Role: "assistant", Content: text, Timestamp: nowTimestamp()})
			return a.terminate(emit, trace, messages, text, steps, len(trimmed), false), trace, nil
		}

		// Neither text nor tool calls. Nudge the model once per run.
		if !forcedFinal && step < a.opts.MaxSteps {
			forcedFinal = true
			messages = append(messages, llm.Message{Role: "user", Content: forcedFinalPrompt, Timestamp: nowTimestamp()})
			continue
		}

		break
	}

	if steps == a.opts.MaxSteps {
		exhausted = true
	}

	// Last resort before giving up on an answer: one direct completion
	// with tools disabled.
	final := lastText
	if final == "" {
		if resp, err := a.client.Chat(llm.ChatRequest{
			Messages:    messages,
			Temperature: a.opts.Temperature,
		}); err == nil {
			final = strings.TrimSpace(resp.Content)
		}
	}
	if final != "" {
		messages = append(messages, llm.Message{Role: "assistant", Content: final, Timestamp: nowTimestamp()})
	}

	return a.terminate(emit, trace, messages, final, steps, len(trimmed), exhausted), trace, nil
}

// dispatch runs every tool call of one step concurrently and returns the
// observations in call order. Unknown tools and malformed argument
// payloads resolve locally without touching the runner.
func (a *Agent) dispatch(calls []llm.ToolCallRef, step int, known map[string]bool, traceID string, emit func(AgentEvent)) []Observation {
	for _, call := range calls {
		emit(AgentEvent{
			Type:       EventToolStart,
			Step:       step,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			ToolArgs:   call.Arguments,
		})
	}

	results := make([]Observation, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCallRef) {
			defer wg.Done()
			results[i] = a.resolve(call, known, traceID)
		}(i, call)
	}
	wg.Wait()

	for i, call := range calls {
		emit(AgentEvent{
			Type:        EventToolEnd,
			Step:        step,
			ToolCallID:  call.ID,
			ToolName:    call.Name,
			Observation: &results[i],
		})
	}
	return results
}

func (a *Agent) resolve(call llm.ToolCallRef, known map[string]bool, traceID string) Observation {
	if _, raw := call.Arguments["_raw_arguments"]; raw && len(call.Arguments) == 1 {
		return Observation{
			OK:        false,
			ErrorCode: ErrCodeInvalidToolCall,
			Message:   fmt.Sprintf("arguments for %s did not form a JSON object", call.Name),
			Hint:      "resend the call with arguments as a single JSON object matching the tool's schema",
		}
	}
	if !known[call.Name] {
		return Observation{
			OK:        false,
			ErrorCode: ErrCodeUnknownTool,
			Message:   fmt.Sprintf("tool '%s' does not exist", call.Name),
			Hint:      "valid tools: " + strings.Join(a.runner.ListTools(), ", "),
		}
	}
	return a.runner.Run(call.Name, call.Arguments, traceID)
}

func serializeObservation(obs Observation) string {
	b, err := json.Marshal(obs)
	if err != nil {
		return `{"ok":false,"message":"observation could not be serialized"}`
	}
	return string(b)
}

// terminate emits the closing event sequence: final, then finish or
// max_steps, then stream_end with the history split and user-turn
// timestamp range.
func (a *Agent) terminate(emit func(AgentEvent), trace *Trace, messages []llm.Message, final string, steps, historyUsed int, exhausted bool) *RunResult {
	trace.Steps = steps
	trace.Messages = messages

	emit(AgentEvent{Type: EventFinal, Step: steps, Content: final})
	if exhausted {
		emit(AgentEvent{Type: EventMaxSteps, Step: steps})
	} else {
		emit(AgentEvent{Type: EventFinish, Step: steps})
	}
	emit(streamEndEvent(messages))

	return &RunResult{
		OK:                      final != "" && !exhausted,
		TraceID:                 trace.TraceID,
		Steps:                   steps,
		Final:                   final,
		ConversationHistoryUsed: historyUsed,
	}
}

func (a *Agent) failResult(trace *Trace, messages []llm.Message, steps, historyUsed int) *RunResult {
	trace.Steps = steps
	trace.Messages = messages
	return &RunResult{
		OK:                      false,
		TraceID:                 trace.TraceID,
		Steps:                   steps,
		ConversationHistoryUsed: historyUsed,
	}
}

// streamEndEvent splits the run's history into the user-visible
// conversation and the internal scaffolding, and reports the earliest and
// latest user-turn timestamps.
func streamEndEvent(messages []llm.Message) AgentEvent {
	ev := AgentEvent{Type: EventStreamEnd}
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			if msg.Content != forcedFinalPrompt {
				ev.Visible = append(ev.Visible, msg)
			} else {
				ev.Internal = append(ev.Internal, msg)
			}
			if msg.Timestamp != 0 {
				if ev.FirstUserTimestamp == 0 {
					ev.FirstUserTimestamp = msg.Timestamp
				}
				ev.LastUserTimestamp = msg.Timestamp
			}
		case "assistant":
			if msg.Content != "" {
				ev.Visible = append(ev.Visible, msg)
			} else {
				ev.Internal = append(ev.Internal, msg)
			}
		default:
			ev.Internal = append(ev.Internal, msg)
		}
	}
	return ev
}
