package core

import (
	"github.com/coldframe/frost/pkg/llm"
	"github.com/google/uuid"
)

// Trace is the full record of one run: every message exchanged and every
// event emitted, under one trace id. It lives only as long as the caller
// holds it.
type Trace struct {
	TraceID  string
	Steps    int
	Messages []llm.Message
	Events   []AgentEvent
}

func newTrace() *Trace {
	return &Trace{TraceID: uuid.NewString()}
}

func (t *Trace) record(ev AgentEvent) {
	t.Events = append(t.Events, ev)
}

// RunResult is the terminal outcome of a run. OK is false both for hard
// failures and for step-budget exhaustion; in the latter case Final still
// carries whatever partial answer was produced.
type RunResult struct {
	OK                      bool
	TraceID                 string
	Steps                   int
	Final                   string
	ConversationHistoryUsed int
}
