package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor    = lipgloss.Color("#6c6c6c")
	TextColor   = lipgloss.Color("#e0e0e0")
	AccentColor = lipgloss.Color("#7dcfff")
	ErrorColor  = lipgloss.Color("#f7768e")
	ToolColor   = lipgloss.Color("#9ece6a")
	WarnColor   = lipgloss.Color("#e0af68")
	InputAreaBg = lipgloss.Color("#1f2335")
)

// Log entry styles
var (
	UserMessageStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(AccentColor).
				PaddingLeft(1)

	AgentMessageStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	ThoughtStyle = lipgloss.NewStyle().
			Foreground(DimColor).
			Italic(true)

	ToolCallStyle = lipgloss.NewStyle().
			Foreground(ToolColor)

	ObservationStyle = lipgloss.NewStyle().
				Foreground(DimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(WarnColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(DimColor)
)

// Status line styles
var (
	StatusActiveStyle = lipgloss.NewStyle().Foreground(AccentColor)
	StatusToolStyle   = lipgloss.NewStyle().Foreground(ToolColor)
	StatusIdleStyle   = lipgloss.NewStyle().Foreground(DimColor)
)

// Input area and footer styles
var (
	InputAreaStyle = lipgloss.NewStyle().
			Background(InputAreaBg).
			Padding(0, 1)

	ModelBadgeStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	FooterAppNameStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingRight(1)

	FooterModelStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				PaddingRight(1)

	FooterPlanStyle = lipgloss.NewStyle().
			Foreground(WarnColor).
			PaddingRight(1)

	ShortcutKeyStyle  = lipgloss.NewStyle().Foreground(TextColor)
	ShortcutDescStyle = lipgloss.NewStyle().Foreground(DimColor)
)

// Commit confirmation panel
var (
	ConfirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarnColor).
			Padding(0, 2)

	ConfirmTitleStyle = lipgloss.NewStyle().
				Foreground(WarnColor).
				Bold(true)

	ConfirmItemStyle = lipgloss.NewStyle().
				Foreground(TextColor)
)

// Log prefixes
const (
	ToolCallPrefix = "● "
)
