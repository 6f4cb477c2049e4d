package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/core/tools"
	"github.com/coldframe/frost/pkg/llm"
	"github.com/coldframe/frost/pkg/plan"
)

// logEntry represents a single log line in the UI
type logEntry struct {
	Type     string // "user", "thought", "tool", "observation", "streaming", "response", "error", "notice", "separator"
	Content  string
	Tool     string        // tool name (for "tool" and "observation" entries)
	Duration time.Duration // execution time (for "observation" entries)
}

// Model is the Bubble Tea model for the FROST console. It manages the
// viewport with the conversation log, the input line, the running agent,
// and the commit confirmation flow.
type Model struct {
	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	logs      []logEntry
	thinking  bool
	width     int
	height    int
	ready     bool
	renderer  *glamour.TermRenderer

	agent     *core.Agent
	planStore *plan.Store
	confirmer *tools.Confirmer
	debugLog  *core.DebugLog // nil unless debug mode is on
	history   []llm.Message  // conversation carried into the next run

	inputHistory []string // history of user inputs
	historyIdx   int      // current position in history (-1 = new input)
	savedInput   string   // saved input when navigating history

	status          string // "idle", "thinking", "streaming", "tool", "confirm"
	currentTool     string
	streamingBuffer string
	modelName       string
	toolStarted     map[string]time.Time // tool call id -> dispatch time

	// Commit confirmation state
	confirmationMode bool
	pendingCommit    *tools.CommitPrompt

	// Run cancellation
	cancelRun context.CancelFunc

	// Animation state (harmonica spring for the pulsing status marker)
	animSpring harmonica.Spring
	animPos    float64
	animVel    float64
	animTarget float64
}

// agentEventMsg wraps an agent event for the TUI
type agentEventMsg struct {
	event core.AgentEvent
}

// agentDoneMsg signals the agent run has finished
type agentDoneMsg struct {
	result *core.RunResult
	err    error
}

// runStartedMsg carries the cancel function when a run starts
type runStartedMsg struct {
	cancel context.CancelFunc
}

// commitPromptMsg asks the operator to approve a staged plan commit
type commitPromptMsg struct {
	prompt tools.CommitPrompt
}

// planChangedMsg forces a footer refresh when the plan store mutates
type planChangedMsg struct{}

// animTickMsg drives the harmonica spring animation
type animTickMsg time.Time

// programRef holds the program reference so worker goroutines can send
// messages back into the event loop.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// Set updates the program reference (thread-safe).
func (p *programRef) Set(prog *tea.Program) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.program = prog
}

// Send sends a message to the program if it exists (thread-safe).
func (p *programRef) Send(msg tea.Msg) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.program != nil {
		p.program.Send(msg)
	}
}

// Global program reference with thread-safe accessors.
var globalProgram = &programRef{}
