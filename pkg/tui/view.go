package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI to a string.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.confirmationMode && m.pendingCommit != nil {
		b.WriteString(m.renderConfirmation())
	} else {
		b.WriteString(m.renderInputArea())
	}
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

// updateViewportContent updates the viewport with the current log entries,
// preserving the scroll position if the user has scrolled up.
func (m *Model) updateViewportContent() {
	var content strings.Builder

	for _, entry := range m.logs {
		line := m.formatLogEntry(entry)
		content.WriteString(line)
		content.WriteString("\n")
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content.String())
	if atBottom || m.thinking {
		m.viewport.GotoBottom()
	}
}

// formatLogEntry formats a single log entry for display.
func (m *Model) formatLogEntry(entry logEntry) string {
	contentWidth := m.width - 6
	if contentWidth < 40 {
		contentWidth = 40
	}

	switch entry.Type {
	case "user":
		return UserMessageStyle.Width(contentWidth).Render(entry.Content)

	case "thought":
		return ThoughtStyle.Width(contentWidth).Render(entry.Content)

	case "tool":
		return ToolCallStyle.Render(ToolCallPrefix + entry.Content)

	case "observation":
		content := entry.Content
		if len(content) > 500 {
			content = content[:400] + "\n... (truncated)"
		}
		if entry.Duration > 0 {
			content = fmt.Sprintf("%s (%dms)", content, entry.Duration.Milliseconds())
		}
		return ObservationStyle.Render("  " + content)

	case "streaming":
		return AgentMessageStyle.Render(entry.Content)

	case "response":
		if m.renderer != nil {
			rendered, err := m.renderer.Render(entry.Content)
			if err == nil {
				return strings.TrimSpace(rendered)
			}
		}
		return AgentMessageStyle.Render(entry.Content)

	case "notice":
		return NoticeStyle.Render("  " + entry.Content)

	case "error":
		return ErrorStyle.Render("  Error: " + entry.Content)

	case "separator":
		return ""

	default:
		return entry.Content
	}
}

// renderConfirmation renders the staged-plan approval panel in place of
// the input line.
func (m Model) renderConfirmation() string {
	var b strings.Builder
	b.WriteString(ConfirmTitleStyle.Render(fmt.Sprintf("Apply %d staged operation(s)?", m.pendingCommit.Items)))
	b.WriteString("\n")
	for _, desc := range m.pendingCommit.Descriptions {
		b.WriteString(ConfirmItemStyle.Render("  " + desc))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("y apply    n cancel"))
	return ConfirmBoxStyle.Width(m.width - 4).Render(b.String())
}

// renderInputArea renders the input line.
func (m Model) renderInputArea() string {
	return InputAreaStyle.Width(m.width - 3).Render(m.textinput.View())
}

// renderFooter renders model info and plan state on the left, shortcuts
// on the right.
func (m Model) renderFooter() string {
	var left string

	if m.thinking {
		marker := "◦"
		if m.animPos > 0.5 {
			marker = "●"
		}
		left = StatusActiveStyle.Render(marker+" ") + m.renderStatus() +
			"  " + ShortcutKeyStyle.Render("esc") + ShortcutDescStyle.Render(" interrupt")
	} else {
		left = FooterAppNameStyle.Render("Frost") + FooterModelStyle.Render(m.modelName)
		if n := m.planStore.Count(); n > 0 {
			left += FooterPlanStyle.Render(fmt.Sprintf("plan: %d", n))
		}
	}

	var parts []string
	if !m.thinking {
		parts = append(parts, ShortcutKeyStyle.Render("↑↓")+ShortcutDescStyle.Render(" history"))
	}
	parts = append(parts, ShortcutKeyStyle.Render("ctrl+l")+ShortcutDescStyle.Render(" clear"))
	parts = append(parts, ShortcutKeyStyle.Render("ctrl+y")+ShortcutDescStyle.Render(" copy"))
	right := strings.Join(parts, "    ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return FooterStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderStatus renders the current agent status.
func (m Model) renderStatus() string {
	switch m.status {
	case "thinking":
		return StatusActiveStyle.Render(m.spinner.View() + " thinking...")
	case "streaming":
		return StatusActiveStyle.Render(m.spinner.View() + " streaming...")
	case "tool":
		return StatusToolStyle.Render(m.spinner.View() + " running " + m.currentTool)
	case "confirm":
		return NoticeStyle.Render("awaiting approval")
	default:
		return StatusIdleStyle.Render("ready")
	}
}
