package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/core/tools"
	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/llm"
	"github.com/coldframe/frost/pkg/plan"
)

// newSpinner creates the dots spinner used while the agent works.
func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{
			".       ",
			"..      ",
			"...     ",
			"....    ",
			".....   ",
			"......  ",
			"....... ",
			"........",
		},
		FPS: time.Second / 5,
	}
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	return sp
}

// newTextInput creates the input line. The text, placeholder, and cursor
// backgrounds must match the input area container or the line shows seams.
func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your samples, or stage an operation..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80
	ti.Prompt = ""

	ti.TextStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(InputAreaBg)
	ti.PlaceholderStyle = lipgloss.NewStyle().
		Foreground(DimColor).
		Background(InputAreaBg)
	ti.Cursor.Style = lipgloss.NewStyle().
		Foreground(AccentColor).
		Background(InputAreaBg)

	return ti
}

// newGlamourRenderer creates a glamour renderer for markdown responses.
func newGlamourRenderer() *glamour.TermRenderer {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	return renderer
}

// updateGlamourWidth recreates the glamour renderer with a new word wrap
// width after a terminal resize.
func (m *Model) updateGlamourWidth(width int) {
	if width < 40 {
		width = 40
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		m.renderer = renderer
	}
}

// NewModel wires the whole application together: LLM client, inventory
// store, plan store, tool suite, agent, and the UI components.
func NewModel(cfg core.AppConfig) (Model, error) {
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return Model{}, fmt.Errorf("configure llm client: %w", err)
	}

	store := inventory.NewStore(cfg.Inventory)
	planStore := plan.NewStore()
	planStore.OnChange(func() {
		globalProgram.Send(planChangedMsg{})
	})

	confirmer := tools.NewConfirmer()
	confirmer.SetNotifier(func(prompt tools.CommitPrompt) {
		globalProgram.Send(commitPromptMsg{prompt: prompt})
	})

	suite := tools.NewSuite(store, planStore, confirmer, cfg.Operator)
	agent := core.NewAgent(client, suite, core.Options{
		MaxSteps:    cfg.MaxSteps,
		Temperature: cfg.LLM.Temperature,
	})

	var debugLog *core.DebugLog
	if cfg.Debug {
		debugLog, _ = core.OpenDebugLog()
	}

	return Model{
		textinput:    newTextInput(),
		spinner:      newSpinner(),
		logs:         []logEntry{},
		renderer:     newGlamourRenderer(),
		agent:        agent,
		planStore:    planStore,
		confirmer:    confirmer,
		debugLog:     debugLog,
		inputHistory: []string{},
		historyIdx:   -1,
		status:       "idle",
		modelName:    cfg.LLM.Model,
		toolStarted:  map[string]time.Time{},
		animSpring:   harmonica.NewSpring(harmonica.FPS(30), 4.0, 0.3),
		animTarget:   1.0,
	}, nil
}

// Init initializes the Bubble Tea model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		m.spinner.Tick,
	)
}
