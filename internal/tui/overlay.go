package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
)

// overlay is a transient input capture that floats on top of the form.
// When done() returns true, the overlay is dismissed.
// result is nil if aborted, or contains the user's selection/input.
type overlay interface {
	Update(tea.Msg) (overlay, tea.Cmd)
	View(width, height int) string
	done() (bool, interface{})
}

// --- Styles ---

var (
	overlayBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("12")).
				Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				MarginBottom(1)

	overlayHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				MarginTop(1)

	overlaySelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("12")).
				Bold(true)

	overlayFilterStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	overlayErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))
)

// overlayBox wraps content in the bordered box and centers it.
func overlayBox(content string, width, height, maxWidth int) string {
	boxWidth := width - 10
	if boxWidth < 30 {
		boxWidth = 30
	}
	if boxWidth > maxWidth {
		boxWidth = maxWidth
	}
	box := overlayBorderStyle.Width(boxWidth).Render(content)
	return lipgloss.Place(width, height-2, lipgloss.Center, lipgloss.Center, box)
}

// --- Selection List Overlay ---

// selectionItem is a single option in the selection list.
type selectionItem struct {
	ID      string
	Label   string
	Desc    string // optional secondary text (used for filtering)
	Display string // optional pre-rendered label (overrides Label+Desc for display)
	Icon    string // optional pre-rendered icon (rendered outside of highlight)

	Option fields.Option
	Issue  *fields.IssueSuggestion
}

// Messages emitted by the selection overlay while it is open.
type (
	// selectionToggledMsg reports the full selection after a multi-select toggle.
	selectionToggledMsg struct {
		fieldKey string
		selected []fields.Option
	}
	// queryChangedMsg reports new search text in an async list.
	queryChangedMsg struct {
		fieldKey string
		query    string
	}
)

// createRequest is the result of choosing the "create" entry.
type createRequest struct {
	text string
}

// selectionOptions tunes a selection overlay.
type selectionOptions struct {
	fieldKey  string
	multi     bool
	async     bool
	creatable bool
	selected  []fields.Option
}

// selectionOverlay is a filterable selection list. Async lists are filtered
// by the server; creatable lists offer the typed text as a new entry.
type selectionOverlay struct {
	title    string
	items    []selectionItem
	filtered []int // indices into items
	cursor   int
	filter   textinput.Model
	opts     selectionOptions
	checked  []fields.Option
	loading  bool
	errMsg   string
	isDone   bool
	result   interface{} // *selectionItem, createRequest, []fields.Option or nil
}

func newSelectionOverlay(title string, items []selectionItem, opts selectionOptions) *selectionOverlay {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	if opts.async {
		ti.Placeholder = "Type to search..."
	}
	ti.CharLimit = 100
	ti.Focus()

	s := &selectionOverlay{
		title:   title,
		items:   items,
		filter:  ti,
		opts:    opts,
		checked: append([]fields.Option(nil), opts.selected...),
		loading: opts.async,
	}
	s.applyFilter()
	return s
}

// setItems replaces the list with search results for query. Results for a
// query the user has already typed past are ignored.
func (s *selectionOverlay) setItems(query string, items []selectionItem) {
	if query != s.filter.Value() {
		return
	}
	s.items = items
	s.loading = false
	s.applyFilter()
}

func (s *selectionOverlay) applyFilter() {
	query := strings.ToLower(s.filter.Value())
	s.filtered = nil
	for i, item := range s.items {
		if s.opts.async || query == "" || strings.Contains(strings.ToLower(item.Label), query) ||
			strings.Contains(strings.ToLower(item.Desc), query) {
			s.filtered = append(s.filtered, i)
		}
	}
	if s.cursor >= s.rows() {
		s.cursor = max(0, s.rows()-1)
	}
}

// createText returns the text offered as a new option, or "".
func (s *selectionOverlay) createText() string {
	if !s.opts.creatable {
		return ""
	}
	text := strings.TrimSpace(s.filter.Value())
	if text == "" {
		return ""
	}
	for _, item := range s.items {
		if strings.EqualFold(item.Label, text) {
			return ""
		}
	}
	return text
}

// rows is the number of selectable rows, including the create entry.
func (s *selectionOverlay) rows() int {
	n := len(s.filtered)
	if s.createText() != "" {
		n++
	}
	return n
}

func (s *selectionOverlay) isChecked(o fields.Option) bool {
	for _, c := range s.checked {
		if c.Equal(o) {
			return true
		}
	}
	return false
}

func (s *selectionOverlay) toggle(o fields.Option) tea.Cmd {
	next := make([]fields.Option, 0, len(s.checked)+1)
	found := false
	for _, c := range s.checked {
		if c.Equal(o) {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		next = append(next, o)
	}
	s.checked = next
	s.errMsg = ""
	selected := append([]fields.Option(nil), next...)
	field := s.opts.fieldKey
	return func() tea.Msg { return selectionToggledMsg{fieldKey: field, selected: selected} }
}

// reject restores the checks to the committed selection after a toggle
// was refused.
func (s *selectionOverlay) reject(committed []fields.Option, msg string) {
	s.checked = append([]fields.Option(nil), committed...)
	s.errMsg = msg
}

func (s *selectionOverlay) Update(msg tea.Msg) (overlay, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			s.isDone = true
			s.result = nil
			return s, nil
		case "enter":
			return s, s.choose()
		case " ", "tab":
			if s.opts.multi && s.cursor < len(s.filtered) {
				return s, s.toggle(s.items[s.filtered[s.cursor]].Option)
			}
			if km.String() == "tab" {
				return s, nil
			}
		case "up", "ctrl+p":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil
		case "down", "ctrl+n":
			if s.cursor < s.rows()-1 {
				s.cursor++
			}
			return s, nil
		}
	}

	// Forward to text input for filtering
	before := s.filter.Value()
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	s.applyFilter()
	if s.opts.async && s.filter.Value() != before {
		s.loading = true
		query := s.filter.Value()
		field := s.opts.fieldKey
		cmd = tea.Batch(cmd, func() tea.Msg { return queryChangedMsg{fieldKey: field, query: query} })
	}
	return s, cmd
}

// choose handles enter: the create entry, a single pick, or finishing a
// multi-select.
func (s *selectionOverlay) choose() tea.Cmd {
	if text := s.createText(); text != "" && s.cursor == len(s.filtered) {
		s.isDone = true
		s.result = createRequest{text: text}
		return nil
	}
	if s.opts.multi {
		s.isDone = true
		s.result = append([]fields.Option(nil), s.checked...)
		return nil
	}
	if len(s.filtered) > 0 && s.cursor < len(s.filtered) {
		idx := s.filtered[s.cursor]
		s.result = &s.items[idx]
	}
	s.isDone = true
	return nil
}

func (s *selectionOverlay) View(width, height int) string {
	var b strings.Builder

	b.WriteString(overlayTitleStyle.Render(s.title))
	b.WriteString("\n")
	b.WriteString(s.filter.View())
	b.WriteString("\n\n")

	// Show up to maxVisible items, capped so the overlay never fills the screen
	maxVisible := height - 12
	if maxVisible > 15 {
		maxVisible = 15
	}
	if maxVisible < 3 {
		maxVisible = 3
	}

	start := 0
	if s.cursor >= maxVisible {
		start = s.cursor - maxVisible + 1
	}

	for i := start; i < len(s.filtered) && i < start+maxVisible; i++ {
		item := s.items[s.filtered[i]]
		line := item.Label
		if item.Display != "" {
			line = item.Display
		} else if item.Desc != "" {
			line += overlayFilterStyle.Render("  " + item.Desc)
		}
		if s.opts.multi {
			box := "[ ] "
			if s.isChecked(item.Option) {
				box = "[x] "
			}
			line = box + line
		}
		prefix := "  "
		if item.Icon != "" {
			prefix = item.Icon + " "
		}
		if i == s.cursor {
			b.WriteString(prefix + overlaySelectedStyle.Render(line))
		} else {
			b.WriteString(prefix + line)
		}
		b.WriteString("\n")
	}

	if text := s.createText(); text != "" {
		line := fmt.Sprintf("+ Create %q", text)
		if s.cursor == len(s.filtered) {
			line = overlaySelectedStyle.Render(line)
		}
		b.WriteString("  " + line + "\n")
	}

	switch {
	case s.loading:
		b.WriteString(overlayFilterStyle.Render("  Searching…"))
		b.WriteString("\n")
	case s.rows() == 0:
		b.WriteString(overlayFilterStyle.Render("  No matches"))
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString(overlayErrorStyle.Render(s.errMsg))
		b.WriteString("\n")
	}

	hint := "↑/↓: navigate  enter: select  esc: cancel"
	if s.opts.multi {
		hint = "↑/↓: navigate  space: toggle  enter: done  esc: close"
	}
	b.WriteString(overlayHintStyle.Render(hint))

	return overlayBox(b.String(), width, height, 70)
}

func (s *selectionOverlay) done() (bool, interface{}) {
	return s.isDone, s.result
}

// --- Text Input Overlay ---

// textInputOverlay is a single-line text input. A non-empty message from
// validate keeps the overlay open.
type textInputOverlay struct {
	title    string
	input    textinput.Model
	validate func(string) string
	errMsg   string
	isDone   bool
	result   interface{} // string or nil
}

func newTextInputOverlay(title, initial string, validate func(string) string) *textInputOverlay {
	ti := textinput.New()
	ti.SetValue(initial)
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	return &textInputOverlay{
		title:    title,
		input:    ti,
		validate: validate,
	}
}

func (t *textInputOverlay) Update(msg tea.Msg) (overlay, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			t.isDone = true
			t.result = nil
			return t, nil
		case "enter":
			value := t.input.Value()
			if t.validate != nil {
				if t.errMsg = t.validate(value); t.errMsg != "" {
					return t, nil
				}
			}
			t.isDone = true
			t.result = value
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

func (t *textInputOverlay) View(width, height int) string {
	var b strings.Builder

	b.WriteString(overlayTitleStyle.Render(t.title))
	b.WriteString("\n")
	b.WriteString(t.input.View())
	b.WriteString("\n")
	if t.errMsg != "" {
		b.WriteString(overlayErrorStyle.Render(t.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(overlayHintStyle.Render("enter: save  esc: cancel"))

	return overlayBox(b.String(), width, height, 70)
}

func (t *textInputOverlay) done() (bool, interface{}) {
	return t.isDone, t.result
}

// --- Text Editor Overlay ---

// textEditorOverlay is a multi-line text editor (description, comments).
type textEditorOverlay struct {
	title    string
	editor   textarea.Model
	validate func(string) string
	errMsg   string
	isDone   bool
	result   interface{} // string or nil
}

func newTextEditorOverlay(title, initial string, width, height int, validate func(string) string) *textEditorOverlay {
	ta := textarea.New()
	ta.SetValue(initial)
	ta.SetWidth(min(width-14, 70))
	ta.SetHeight(max(height-12, 5))
	ta.Focus()
	// Allow Enter for newlines; ctrl+s saves
	ta.KeyMap.InsertNewline.SetKeys("enter")

	return &textEditorOverlay{
		title:    title,
		editor:   ta,
		validate: validate,
	}
}

func (e *textEditorOverlay) Update(msg tea.Msg) (overlay, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			e.isDone = true
			e.result = nil
			return e, nil
		case "ctrl+s":
			value := e.editor.Value()
			if e.validate != nil {
				if e.errMsg = e.validate(value); e.errMsg != "" {
					return e, nil
				}
			}
			e.isDone = true
			e.result = value
			return e, nil
		}
	}

	var cmd tea.Cmd
	e.editor, cmd = e.editor.Update(msg)
	return e, cmd
}

func (e *textEditorOverlay) View(width, height int) string {
	var b strings.Builder

	b.WriteString(overlayTitleStyle.Render(e.title))
	b.WriteString("\n")
	b.WriteString(e.editor.View())
	b.WriteString("\n")
	if e.errMsg != "" {
		b.WriteString(overlayErrorStyle.Render(e.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(overlayHintStyle.Render("ctrl+s: save  esc: cancel"))

	return overlayBox(b.String(), width, height, 75)
}

func (e *textEditorOverlay) done() (bool, interface{}) {
	return e.isDone, e.result
}

// --- Form Overlay ---

// formField is one labelled input of a formOverlay.
type formField struct {
	key   string
	label string
	input textinput.Model
}

// formOverlay edits several related values at once (time tracking, work
// log). validate returns messages keyed by field key.
type formOverlay struct {
	title    string
	fields   []formField
	focus    int
	validate func(map[string]string) map[string]string
	errs     map[string]string
	isDone   bool
	result   interface{} // map[string]string or nil
}

func newFormOverlay(title string, keys, labels, values []string, validate func(map[string]string) map[string]string) *formOverlay {
	f := &formOverlay{title: title, validate: validate}
	for i, k := range keys {
		ti := textinput.New()
		ti.SetValue(values[i])
		ti.CharLimit = 500
		ti.Width = 40
		f.fields = append(f.fields, formField{key: k, label: labels[i], input: ti})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f *formOverlay) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, ff := range f.fields {
		out[ff.key] = strings.TrimSpace(ff.input.Value())
	}
	return out
}

func (f *formOverlay) moveFocus(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *formOverlay) Update(msg tea.Msg) (overlay, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			f.isDone = true
			f.result = nil
			return f, nil
		case "tab", "down":
			f.moveFocus(1)
			return f, nil
		case "shift+tab", "up":
			f.moveFocus(-1)
			return f, nil
		case "enter", "ctrl+s":
			if km.String() == "enter" && f.focus < len(f.fields)-1 {
				f.moveFocus(1)
				return f, nil
			}
			values := f.values()
			if f.validate != nil {
				if f.errs = f.validate(values); len(f.errs) > 0 {
					return f, nil
				}
			}
			f.isDone = true
			f.result = values
			return f, nil
		}
	}

	if len(f.fields) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f *formOverlay) View(width, height int) string {
	var b strings.Builder

	b.WriteString(overlayTitleStyle.Render(f.title))
	b.WriteString("\n")
	for _, ff := range f.fields {
		b.WriteString(overlayFilterStyle.Render(ff.label))
		b.WriteString("\n")
		b.WriteString(ff.input.View())
		b.WriteString("\n")
		if msg := f.errs[ff.key]; msg != "" {
			b.WriteString(overlayErrorStyle.Render(msg))
			b.WriteString("\n")
		}
	}
	b.WriteString(overlayHintStyle.Render("tab: next  enter/ctrl+s: save  esc: cancel"))

	return overlayBox(b.String(), width, height, 70)
}

func (f *formOverlay) done() (bool, interface{}) {
	return f.isDone, f.result
}

// --- Confirmation Overlay ---

// confirmOverlay shows a y/n confirmation prompt.
type confirmOverlay struct {
	message string
	isDone  bool
	result  interface{} // bool (true=confirmed) or nil
}

func newConfirmOverlay(message string) *confirmOverlay {
	return &confirmOverlay{message: message}
}

func (c *confirmOverlay) Update(msg tea.Msg) (overlay, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "y", "Y":
			c.isDone = true
			c.result = true
			return c, nil
		case "n", "N", "esc":
			c.isDone = true
			c.result = nil
			return c, nil
		}
	}
	return c, nil
}

func (c *confirmOverlay) View(width, height int) string {
	content := overlayBorderStyle.Render(
		fmt.Sprintf("%s\n\n%s",
			overlayTitleStyle.Render(c.message),
			overlayHintStyle.Render("y: confirm  n/esc: cancel"),
		),
	)
	return lipgloss.Place(width, height-2, lipgloss.Center, lipgloss.Center, content)
}

func (c *confirmOverlay) done() (bool, interface{}) {
	return c.isDone, c.result
}
