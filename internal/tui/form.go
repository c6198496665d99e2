package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/render"
)

// --- Styles for the form ---

var (
	formKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	formDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	formSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				MarginTop(1)

	formLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(20)

	formCursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	formRequiredStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	formWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))

	formLinkTypeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")). // yellow
				Width(20)

	formDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // green ✓
)

// formView lays out the rendered widgets of the session in a scrollable
// viewport with a cursor on one row.
type formView struct {
	widgets  []render.Widget
	cursor   int
	offsets  []int // first content line of each widget
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func newFormView(width, height int) formView {
	return formView{width: width, height: height}
}

// setWidgets replaces the rows, keeping the cursor on the same field key
// when it still exists.
func (v *formView) setWidgets(ws []render.Widget) {
	var current string
	if w := v.selected(); w != nil {
		current = w.Descriptor().Key
	}
	v.widgets = ws
	v.cursor = 0
	for i, w := range ws {
		if w.Descriptor().Key == current {
			v.cursor = i
			break
		}
	}
	if !v.visible(v.cursor) {
		v.move(1)
	}
}

// selected returns the widget under the cursor, or nil.
func (v *formView) selected() render.Widget {
	if v.cursor < 0 || v.cursor >= len(v.widgets) {
		return nil
	}
	return v.widgets[v.cursor]
}

func (v *formView) visible(i int) bool {
	if i < 0 || i >= len(v.widgets) {
		return false
	}
	_, hidden := v.widgets[i].(render.HiddenWidget)
	return !hidden
}

// move shifts the cursor by delta rows, skipping hidden widgets.
func (v *formView) move(delta int) {
	for i := v.cursor + delta; i >= 0 && i < len(v.widgets); i += delta {
		if v.visible(i) {
			v.cursor = i
			return
		}
	}
}

// build renders every row; spin is drawn next to loadingField.
func (v *formView) build(loadingField, spin string) {
	content, offsets := v.renderContent(loadingField, spin)
	v.offsets = offsets

	// Height available: header (2), banner (1) and status bar (1)
	vpHeight := v.height - 4
	if vpHeight < 3 {
		vpHeight = 3
	}

	yOffset := v.viewport.YOffset
	vp := viewport.New(v.width, vpHeight)
	vp.SetContent(content)
	vp.KeyMap.Up.SetKeys("pgup")
	vp.KeyMap.Down.SetKeys("pgdown")
	vp.SetYOffset(yOffset)
	v.viewport = vp
	v.ready = true
	v.scrollToCursor()
}

func (v *formView) scrollToCursor() {
	if v.cursor >= len(v.offsets) {
		return
	}
	line := v.offsets[v.cursor]
	switch {
	case line < v.viewport.YOffset:
		v.viewport.SetYOffset(line)
	case line >= v.viewport.YOffset+v.viewport.Height:
		v.viewport.SetYOffset(line - v.viewport.Height + 1)
	}
}

func (v *formView) renderContent(loadingField, spin string) (string, []int) {
	maxWidth := v.width - 2
	if maxWidth < 20 {
		maxWidth = 20
	}

	var b strings.Builder
	offsets := make([]int, len(v.widgets))
	line := 0
	for i, w := range v.widgets {
		offsets[i] = line
		row := renderWidget(w, maxWidth)
		if row == "" {
			continue
		}
		marker := "  "
		if i == v.cursor {
			marker = formCursorStyle.Render("▸ ")
		}
		if w.Descriptor().Key == loadingField && spin != "" {
			row = strings.TrimRight(row, "\n") + " " + spin + "\n"
		}
		rowLines := strings.Split(strings.TrimRight(row, "\n"), "\n")
		for j, l := range rowLines {
			if j == 0 {
				b.WriteString(marker + l + "\n")
			} else {
				b.WriteString("  " + l + "\n")
			}
		}
		line += len(rowLines)
	}
	if len(v.widgets) == 0 {
		b.WriteString(emptyStyle.Render("No fields"))
	}
	return b.String(), offsets
}

// Update scrolls the viewport for keys the app does not handle.
func (v *formView) Update(msg tea.Msg) tea.Cmd {
	if !v.ready {
		return nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return cmd
}

// View renders the form viewport.
func (v *formView) View() string {
	if !v.ready {
		return loadingStyle.Render("Loading fields...")
	}
	return v.viewport.View()
}

// setSize updates the viewport dimensions.
func (v *formView) setSize(width, height int) {
	v.width = width
	v.height = height
}

// --- Widget rendering ---

func fieldLabel(f fields.Descriptor) string {
	label := f.Name
	if f.Required {
		label += formRequiredStyle.Render("*")
	}
	return formLabelStyle.Render(label)
}

func placeholder(s, empty string) string {
	if s == "" {
		return formDimStyle.Render(empty)
	}
	return s
}

// renderWidget returns the text of one row, or "" for hidden widgets.
func renderWidget(w render.Widget, maxWidth int) string {
	f := w.Descriptor()
	switch w := w.(type) {
	case render.HiddenWidget:
		return ""

	case render.TextWidget:
		if w.Multiline {
			return renderSection(f.Name, maxWidth) + indent(placeholder(w.Value, "No "+strings.ToLower(f.Name))) + "\n"
		}
		return fieldLabel(f) + placeholder(w.Value, "None") + "\n"

	case render.SelectWidget:
		labels := make([]string, 0, len(w.Selected))
		for _, o := range w.Selected {
			if f.ValueType == fields.ValuePriority {
				labels = append(labels, priorityLabel(o.Label()))
				continue
			}
			labels = append(labels, o.Label())
		}
		empty := "None"
		if f.ValueType == fields.ValueUser {
			empty = "Unassigned"
		}
		return fieldLabel(f) + placeholder(strings.Join(labels, ", "), empty) + "\n"

	case render.CheckboxWidget:
		parts := make([]string, 0, len(w.Options))
		for _, o := range w.Options {
			box := "[ ]"
			if containsOption(w.Selected, o) {
				box = "[x]"
			}
			parts = append(parts, box+" "+o.Label())
		}
		return fieldLabel(f) + placeholder(strings.Join(parts, "  "), "No options") + "\n"

	case render.RadioWidget:
		parts := make([]string, 0, len(w.Options))
		for _, o := range w.Options {
			dot := "( )"
			if w.Selected != nil && w.Selected.Equal(o) {
				dot = "(•)"
			}
			parts = append(parts, dot+" "+o.Label())
		}
		return fieldLabel(f) + placeholder(strings.Join(parts, "  "), "No options") + "\n"

	case render.DateWidget:
		return fieldLabel(f) + placeholder(formatDate(w.Value, w.WithTime), "None") + "\n"

	case render.IssueLinkWidget:
		value := ""
		if w.Default != nil {
			value = formKeyStyle.Render(w.Default.Key)
			if w.Default.SummaryText != "" {
				value += "  " + w.Default.SummaryText
			}
		}
		return fieldLabel(f) + placeholder(value, "None") + "\n"

	case render.IssueLinksWidget:
		var b strings.Builder
		b.WriteString(renderSection(fmt.Sprintf("%s (%d)", f.Name, len(w.Links)), maxWidth))
		for _, l := range w.Links {
			b.WriteString(fmt.Sprintf("  %s %s  %s\n", formLinkTypeStyle.Render(l.Relation), formKeyStyle.Render(l.Key), l.Summary))
		}
		return b.String()

	case render.TimetrackingWidget:
		value := fmt.Sprintf("original %s · remaining %s · logged %s",
			placeholder(w.OriginalEstimate, "-"), placeholder(w.RemainingEstimate, "-"), placeholder(w.TimeSpent, "-"))
		return fieldLabel(f) + value + "\n"

	case render.WorklogWidget:
		if !w.Enabled {
			return fieldLabel(f) + formDimStyle.Render("Not logging work") + "\n"
		}
		return fieldLabel(f) + fmt.Sprintf("%s spent, %s remaining", w.TimeSpent, w.NewEstimate) + "\n"

	case render.AttachmentWidget:
		var b strings.Builder
		b.WriteString(renderSection(fmt.Sprintf("%s (%d)", f.Name, len(w.Items)), maxWidth))
		for _, a := range w.Items {
			b.WriteString(fmt.Sprintf("  %s  %s\n", a.Filename, formDimStyle.Render(humanSize(a.Size))))
		}
		return b.String()

	case render.CommentsWidget:
		var b strings.Builder
		b.WriteString(renderSection(fmt.Sprintf("%s (%d)", f.Name, w.Total), maxWidth))
		for i, c := range w.Comments {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				lipgloss.NewStyle().Bold(true).Render(placeholder(c.Author, "Unknown")),
				formDimStyle.Render(formatDate(c.Created, true)),
			))
			if c.Body != "" {
				b.WriteString(indent(c.Body) + "\n")
			}
			if i < len(w.Comments)-1 {
				b.WriteString("\n")
			}
		}
		return b.String()

	case render.ParticipantsWidget:
		names := make([]string, 0, len(w.Users))
		for _, u := range w.Users {
			names = append(names, u.Label())
		}
		return fieldLabel(f) + placeholder(strings.Join(names, ", "), "None") + "\n"

	case render.SubtasksWidget:
		var b strings.Builder
		b.WriteString(renderSection(fmt.Sprintf("%s (%d)", f.Name, len(w.Items)), maxWidth))
		for _, s := range w.Items {
			icon := formDimStyle.Render("·")
			if strings.EqualFold(s.Status, "done") {
				icon = formDoneStyle.Render("✓")
			}
			b.WriteString(fmt.Sprintf("  %s %s  %s\n", icon, formKeyStyle.Render(s.Key), s.Summary))
		}
		return b.String()

	case render.ReadOnlyWidget:
		var value string
		switch w.Format {
		case render.FormatLozenge:
			value = lozenge(w.Text, w.Color)
		case render.FormatIcon:
			value = priorityLabel(w.Text)
		default:
			value = w.Text
		}
		return fieldLabel(f) + value + "\n"

	case render.UnknownWidget:
		return fieldLabel(f) + formWarningStyle.Render("⚠ "+w.Warning) + " " + formDimStyle.Render(w.Raw) + "\n"
	}
	return ""
}

func containsOption(list []fields.Option, o fields.Option) bool {
	for _, x := range list {
		if x.Equal(o) {
			return true
		}
	}
	return false
}

func renderSection(label string, maxWidth int) string {
	// "─── Label ─────────"
	remaining := maxWidth - 4 - lipgloss.Width(label) - 1
	if remaining < 0 {
		remaining = 0
	}
	tail := strings.Repeat("─", remaining)
	return formSectionStyle.Render(fmt.Sprintf("─── %s %s", label, tail)) + "\n"
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// formatDate trims Jira timestamps to "2025-07-01 10:23" or "2025-07-01".
func formatDate(s string, withTime bool) string {
	if len(s) >= 16 && withTime {
		return s[:10] + " " + s[11:16]
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
