package tui

import "github.com/charmbracelet/lipgloss"

// priorityDef holds the icon and color for a Jira priority level.
type priorityDef struct {
	icon  string
	color lipgloss.Color
}

// priorityMap maps priority names (case-sensitive, as returned by Jira) to their display definition.
var priorityMap = map[string]priorityDef{
	"Blocked":     {icon: "⊘", color: lipgloss.Color("#FF5630")},
	"Blocker":     {icon: "⊘", color: lipgloss.Color("#FF5630")},
	"Critical":    {icon: "⏶⏶", color: lipgloss.Color("#FF5630")},
	"Highest":     {icon: "⏶⏶", color: lipgloss.Color("#FF5630")},
	"High":        {icon: "⏶", color: lipgloss.Color("#FF7452")},
	"Medium":      {icon: "≡", color: lipgloss.Color("#FFAB00")},
	"Medium-Rare": {icon: "⏷", color: lipgloss.Color("#6B778C")},
	"Low":         {icon: "⏷⏷", color: lipgloss.Color("#2684FF")},
	"Lowest":      {icon: "⏷⏷", color: lipgloss.Color("#2684FF")},
}

// priorityIcon returns the plain icon for a priority, or "" if unknown.
func priorityIcon(name string) string {
	if def, ok := priorityMap[name]; ok {
		return def.icon
	}
	return ""
}

// priorityLabel returns a colored "icon name" string for the given priority name.
// Falls back to the raw name if unknown.
func priorityLabel(name string) string {
	if def, ok := priorityMap[name]; ok {
		style := lipgloss.NewStyle().Foreground(def.color)
		return style.Render(def.icon) + " " + name
	}
	return name
}

// lozengeColors maps Jira status category color names to terminal colors.
var lozengeColors = map[string]lipgloss.Color{
	"blue-gray":   lipgloss.Color("252"),
	"medium-gray": lipgloss.Color("252"),
	"blue":        lipgloss.Color("12"),
	"yellow":      lipgloss.Color("11"),
	"green":       lipgloss.Color("10"),
	"warm-red":    lipgloss.Color("9"),
	"brown":       lipgloss.Color("3"),
	"purple":      lipgloss.Color("13"),
}

// lozenge renders status text in its category color.
func lozenge(text, colorName string) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := lozengeColors[colorName]; ok {
		style = style.Foreground(c)
	}
	return style.Render(text)
}
