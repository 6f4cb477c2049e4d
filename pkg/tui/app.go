// Package tui provides the terminal user interface for FROST.
// It uses Bubble Tea with a minimal, log-oriented design.
//
// File organization:
// - app.go: Entry point (Run function)
// - model.go: Model struct and message types
// - init.go: Model initialization and wiring
// - update.go: Event handling and state updates
// - view.go: Rendering and display logic
// - keys.go: Keyboard input handling
// - styles.go: Visual styling (colors, borders, etc.)
// - highlight.go: JSON syntax highlighting
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coldframe/frost/pkg/core"
)

// Run starts the TUI application. This is the main entry point for the
// FROST console.
func Run(cfg core.AppConfig) error {
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Store program reference so worker goroutines can send messages
	globalProgram.Set(prog)

	_, err = prog.Run()

	globalProgram.Set(nil)

	return err
}
