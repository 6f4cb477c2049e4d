package core

import (
	"time"

	"github.com/coldframe/frost/pkg/llm"
)

// DefaultMaxSteps bounds the reason-act cycle per run.
const DefaultMaxSteps = 8

// DefaultHistoryTurns is how many prior conversation turns are carried
// into a new run.
const DefaultHistoryTurns = 12

// Options tunes one agent instance.
type Options struct {
	MaxSteps     int
	HistoryTurns int
	Temperature  float64
}

// Agent drives the bounded reason-act loop over a chat client and a tool
// runner. One Agent may serve many runs; each run owns its own message
// list and trace.
type Agent struct {
	client llm.ChatClient
	runner ToolRunner
	opts   Options
}

// NewAgent creates an agent. Zero option fields fall back to defaults.
func NewAgent(client llm.ChatClient, runner ToolRunner, opts Options) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	return &Agent{client: client, runner: runner, opts: opts}
}

// trimConversation keeps the most recent user and assistant turns with
// non-empty text from caller-supplied history. Other roles and empty turns
// are dropped; numeric timestamps are preserved.
func trimConversation(history []llm.Message, keep int) []llm.Message {
	var turns []llm.Message
	for _, msg := range history {
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		if msg.Content == "" {
			continue
		}
		turns = append(turns, llm.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	if len(turns) > keep {
		turns = turns[len(turns)-keep:]
	}
	return turns
}

func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
