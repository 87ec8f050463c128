package tui

import "github.com/charmbracelet/lipgloss"

// Palette. The accent is a roasted-coffee orange.
var (
	colorAccent = lipgloss.Color("173")
	colorTabBg  = lipgloss.Color("236")
	colorMuted  = lipgloss.Color("240")
	colorSoft   = lipgloss.Color("245")
	colorText   = lipgloss.Color("252")
	colorGood   = lipgloss.Color("78")
	colorBad    = lipgloss.Color("167")
	colorWarn   = lipgloss.Color("214")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Background(colorTabBg).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorSoft).Padding(0, 2)

	errorStyle   = lipgloss.NewStyle().Foreground(colorBad)
	successStyle = lipgloss.NewStyle().Foreground(colorGood)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)

	// Debits and credits on ledger lines.
	debitStyle  = successStyle
	creditStyle = errorStyle

	labelStyle    = lipgloss.NewStyle().Bold(true).Width(18)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorMuted)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorMuted)

	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(1, 2)
	hintBoxStyle = boxStyle.BorderForeground(colorAccent)
)
