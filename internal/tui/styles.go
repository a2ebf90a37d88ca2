package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/japb1998/contacts/internal/model"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	danger = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	green  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	errorStyle    = lipgloss.NewStyle().Foreground(danger)
	statusStyle   = lipgloss.NewStyle().Foreground(green)
	labelStyle    = lipgloss.NewStyle().Width(10)
	focusedLabel  = labelStyle.Foreground(accent).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1)
	modeBadgeBase = lipgloss.NewStyle().Padding(0, 1).Bold(true)
)

// categoryColors keyed by category, the filter "All" has none.
var categoryColors = map[model.Category]lipgloss.AdaptiveColor{
	model.CategoryWork:    {Light: "4", Dark: "12"},
	model.CategoryFamily:  {Light: "5", Dark: "13"},
	model.CategoryFriends: {Light: "2", Dark: "10"},
	model.CategoryOther:   {Light: "240", Dark: "245"},
}

func categoryBadge(c model.Category) string {
	color, found := categoryColors[c]
	if !found {
		return string(c)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(c))
}

func modeBadge(mode string) string {
	return modeBadgeBase.Foreground(accent).Render(mode)
}
