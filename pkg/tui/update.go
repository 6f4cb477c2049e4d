package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/llm"
)

// runAgentAsync starts an agent run in a goroutine and streams its events
// back into the program. The TUI stays responsive while the run proceeds.
func runAgentAsync(agent *core.Agent, input string, prior []llm.Message, debugLog *core.DebugLog) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			callback := func(event core.AgentEvent) {
				debugLog.Record(event)
				globalProgram.Send(agentEventMsg{event: event})
			}
			result, _, err := agent.Run(ctx, input, prior, callback)
			globalProgram.Send(agentDoneMsg{result: result, err: err})
		}()

		return runStartedMsg{cancel: cancel}
	}
}

// animTick schedules the next spring animation frame.
func animTick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles all messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		updatedModel, cmd := m.handleKeyMsg(msg)
		if cmd != nil {
			return updatedModel, cmd
		}
		m = updatedModel

	case tea.WindowSizeMsg:
		m = m.handleWindowResize(msg)

	case runStartedMsg:
		m.cancelRun = msg.cancel
		cmds = append(cmds, animTick())

	case agentEventMsg:
		m = m.handleAgentEvent(msg)
		cmds = append(cmds, m.spinner.Tick)

	case agentDoneMsg:
		m = m.handleAgentDone(msg)

	case commitPromptMsg:
		prompt := msg.prompt
		m.confirmationMode = true
		m.pendingCommit = &prompt
		m.status = "confirm"
		m.updateViewportContent()

	case planChangedMsg:
		// Footer renders the plan count; the message alone forces a redraw.

	case animTickMsg:
		if m.thinking {
			m.animPos, m.animVel = m.animSpring.Update(m.animPos, m.animVel, m.animTarget)
			if (m.animTarget == 1.0 && m.animPos > 0.95) || (m.animTarget == 0.0 && m.animPos < 0.05) {
				m.animTarget = 1.0 - m.animTarget
			}
			cmds = append(cmds, animTick())
		}

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Update textinput (for regular character input)
	if !m.thinking && !m.confirmationMode {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleWindowResize adjusts the layout when the terminal is resized.
func (m Model) handleWindowResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 1
	footerHeight := 1
	margins := 3

	viewportHeight := m.height - inputHeight - footerHeight - margins
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	if !m.ready {
		m.viewport = viewport.New(m.width-2, viewportHeight)
		m.viewport.SetContent("")
		m.ready = true
	} else {
		m.viewport.Width = m.width - 2
		m.viewport.Height = viewportHeight
	}

	badgeWidth := lipgloss.Width(ModelBadgeStyle.Render(m.modelName))
	m.textinput.Width = m.width - badgeWidth - 10
	m.updateGlamourWidth(m.width - 6)

	return m
}

// handleAgentEvent folds one agent event into the log.
func (m Model) handleAgentEvent(msg agentEventMsg) Model {
	ev := msg.event

	switch ev.Type {
	case core.EventRunStart, core.EventStepStart:
		m.status = "thinking"

	case core.EventChunk:
		if ev.Channel == core.ChannelThought {
			if len(m.logs) > 0 && m.logs[len(m.logs)-1].Type == "thought" {
				m.logs[len(m.logs)-1].Content += ev.Content
			} else {
				m.logs = append(m.logs, logEntry{Type: "thought", Content: ev.Content})
			}
			break
		}
		m.streamingBuffer += ev.Content
		m.status = "streaming"
		if len(m.logs) > 0 && m.logs[len(m.logs)-1].Type == "streaming" {
			m.logs[len(m.logs)-1].Content = m.streamingBuffer
		} else {
			m.logs = append(m.logs, logEntry{Type: "streaming", Content: m.streamingBuffer})
		}

	case core.EventToolStart:
		m.streamingBuffer = ""
		m.status = "tool"
		m.currentTool = ev.ToolName
		m.toolStarted[ev.ToolCallID] = time.Now()
		m.logs = append(m.logs, logEntry{
			Type:    "tool",
			Tool:    ev.ToolName,
			Content: ev.ToolName + compactArgs(ev.ToolArgs),
		})

	case core.EventToolEnd:
		var duration time.Duration
		if started, ok := m.toolStarted[ev.ToolCallID]; ok {
			duration = time.Since(started)
			delete(m.toolStarted, ev.ToolCallID)
		}
		m.logs = append(m.logs, logEntry{
			Type:     "observation",
			Tool:     ev.ToolName,
			Content:  observationSummary(ev.Observation),
			Duration: duration,
		})
		m.status = "thinking"
		m.currentTool = ""

	case core.EventFinal:
		if len(m.logs) > 0 && m.logs[len(m.logs)-1].Type == "streaming" {
			m.logs[len(m.logs)-1] = logEntry{Type: "response", Content: ev.Content}
		} else {
			m.logs = append(m.logs, logEntry{Type: "response", Content: ev.Content})
		}
		m.streamingBuffer = ""

	case core.EventMaxSteps:
		m.logs = append(m.logs, logEntry{
			Type:    "notice",
			Content: "step budget exhausted; the answer above may be incomplete",
		})

	case core.EventError:
		m.logs = append(m.logs, logEntry{Type: "error", Content: ev.Content})
		m.streamingBuffer = ""

	case core.EventStreamEnd:
		// The run hands back the conversation it actually used plus the
		// new turns; carry the visible part into the next run.
		if len(ev.Visible) > 0 {
			m.history = ev.Visible
		}
	}

	m.updateViewportContent()
	return m
}

// handleAgentDone processes the completion of an agent run.
func (m Model) handleAgentDone(msg agentDoneMsg) Model {
	m.thinking = false
	m.status = "idle"
	m.currentTool = ""
	m.cancelRun = nil
	if msg.err != nil {
		m.logs = append(m.logs, logEntry{Type: "error", Content: msg.err.Error()})
	}
	m.updateViewportContent()
	return m
}

// compactArgs renders tool arguments inline after the tool name.
func compactArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	data, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	s := string(data)
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return " " + s
}

// observationSummary renders a one-or-few-line digest of a tool result.
func observationSummary(obs *core.Observation) string {
	if obs == nil {
		return ""
	}
	if !obs.OK {
		return fmt.Sprintf("%s: %s", obs.ErrorCode, obs.Message)
	}
	if obs.Message != "" {
		return obs.Message
	}
	if obs.Result != nil {
		data, err := json.Marshal(obs.Result)
		if err == nil {
			return HighlightJSON(string(data))
		}
	}
	return "ok"
}
