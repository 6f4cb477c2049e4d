package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg processes keyboard input and returns the updated model and
// command. Confirmation mode swallows everything except its own keys.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirmationMode {
		return m.handleConfirmationKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.cancelRun != nil {
			m.cancelRun()
		}
		return m, tea.Quit

	case "esc":
		if m.thinking && m.cancelRun != nil {
			m.cancelRun()
			return m, nil
		}
		return m, tea.Quit

	case "ctrl+l":
		return m.handleClearScreen()

	case "ctrl+y":
		return m.handleCopyLastResponse()

	case "ctrl+u":
		return m.handleClearInput()

	case "up":
		return m.handleHistoryUp()

	case "down":
		return m.handleHistoryDown()

	case "enter":
		return m.handleEnter()

	case "pgup", "pgdown", "home", "end":
		return m.handleViewportScroll(msg)

	default:
		return m, nil
	}
}

// handleConfirmationKey resolves a pending commit approval.
func (m Model) handleConfirmationKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmer.Respond(true)
		m.confirmationMode = false
		m.pendingCommit = nil
		m.status = "thinking"
		return m, m.spinner.Tick

	case "n", "N", "esc":
		m.confirmer.Respond(false)
		m.confirmationMode = false
		m.pendingCommit = nil
		m.status = "thinking"
		return m, m.spinner.Tick
	}
	return m, nil
}

// handleClearScreen clears all logs and the streaming buffer.
func (m Model) handleClearScreen() (Model, tea.Cmd) {
	m.logs = []logEntry{}
	m.streamingBuffer = ""
	m.updateViewportContent()
	return m, nil
}

// handleCopyLastResponse copies the last agent response to the clipboard.
func (m Model) handleCopyLastResponse() (Model, tea.Cmd) {
	var lastResponse string
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Type == "response" {
			lastResponse = m.logs[i].Content
			break
		}
	}
	if lastResponse != "" {
		_ = clipboard.WriteAll(lastResponse)
	}
	return m, nil
}

// handleClearInput clears the current input and resets history navigation.
func (m Model) handleClearInput() (Model, tea.Cmd) {
	m.textinput.SetValue("")
	m.historyIdx = -1
	return m, nil
}

// handleHistoryUp navigates backwards through input history.
func (m Model) handleHistoryUp() (Model, tea.Cmd) {
	if m.thinking || len(m.inputHistory) == 0 {
		return m, nil
	}

	if m.historyIdx == -1 {
		m.savedInput = m.textinput.Value()
		m.historyIdx = len(m.inputHistory) - 1
	} else if m.historyIdx > 0 {
		m.historyIdx--
	}

	m.textinput.SetValue(m.inputHistory[m.historyIdx])
	m.textinput.CursorEnd()
	return m, nil
}

// handleHistoryDown navigates forwards through input history.
func (m Model) handleHistoryDown() (Model, tea.Cmd) {
	if m.thinking || m.historyIdx == -1 {
		return m, nil
	}

	if m.historyIdx < len(m.inputHistory)-1 {
		m.historyIdx++
		m.textinput.SetValue(m.inputHistory[m.historyIdx])
	} else {
		m.historyIdx = -1
		m.textinput.SetValue(m.savedInput)
	}

	m.textinput.CursorEnd()
	return m, nil
}

// handleEnter submits the current input as a new agent run.
func (m Model) handleEnter() (Model, tea.Cmd) {
	if m.thinking {
		return m, nil
	}
	userInput := strings.TrimSpace(m.textinput.Value())
	if userInput == "" {
		return m, nil
	}

	if len(m.logs) > 0 {
		m.logs = append(m.logs, logEntry{Type: "separator"})
	}
	m.logs = append(m.logs, logEntry{Type: "user", Content: userInput})

	m.inputHistory = append(m.inputHistory, userInput)
	m.historyIdx = -1
	m.savedInput = ""

	m.textinput.SetValue("")
	m.thinking = true
	m.status = "thinking"
	m.streamingBuffer = ""
	m.updateViewportContent()

	return m, tea.Batch(
		m.spinner.Tick,
		runAgentAsync(m.agent, userInput, m.history, m.debugLog),
	)
}

// handleViewportScroll passes scroll events to the viewport.
func (m Model) handleViewportScroll(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
