// Package tui is the terminal front end of the issue editor. The bubbletea
// Update loop is the only writer of the edit session.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbeckham/jira-issue-editor/internal/dispatch"
	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/logging"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
	"github.com/jbeckham/jira-issue-editor/internal/render"
)

// FlagRichText is the feature flag that turns on the rich-text editor for
// multiline fields.
const FlagRichText = "richText"

// --- Messages ---

// inboundMsg carries a host push into the Update loop.
type inboundMsg struct {
	msg protocol.Message
}

// Inbound wraps a host message for tea.Program.Send.
func Inbound(m protocol.Message) tea.Msg {
	return inboundMsg{msg: m}
}

// debounceMsg fires when a field's debounce window closes.
type debounceMsg struct {
	key string
	seq uint64
}

// searchMsg fires when the search debounce window of an open list closes.
type searchMsg struct {
	fieldKey string
	seq      uint64
}

// issuesFetchedMsg delivers issue search results for an issue-link list.
type issuesFetchedMsg struct {
	fieldKey string
	query    string
	issues   []fields.IssueSuggestion
}

// optionsFetchedMsg delivers autocomplete results for an async select.
type optionsFetchedMsg struct {
	fieldKey string
	query    string
	options  []fields.Option
}

// optionCreatedMsg is the outcome of a create-option round trip.
type optionCreatedMsg struct {
	reply protocol.OptionCreated
	err   error
}

// postFailedMsg reports a message the host refused.
type postFailedMsg struct {
	err error
}

// flashMsg sets a temporary status message.
type flashMsg struct {
	text  string
	isErr bool
}

// Requester is the editor's side of the message channel.
// *protocol.Requester implements it.
type Requester interface {
	FetchIssues(ctx context.Context, req protocol.FetchIssues) []fields.IssueSuggestion
	FetchSelectOptions(ctx context.Context, req protocol.FetchSelectOptions) []fields.Option
	CreateOption(ctx context.Context, req protocol.CreateOption) (protocol.OptionCreated, error)
	OpenJiraIssue(key string) error
	Post(msg protocol.Message) error
}

// Options configures the App.
type Options struct {
	Mode       fields.Mode
	IssueKey   string
	ProjectKey string
	IssueType  string

	Debounce       time.Duration
	RichText       bool
	EpicIssueTypes []string
	Templates      *render.Templates

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Logger    *slog.Logger
}

// overlayKind identifies what the open overlay's result maps to.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayText
	overlayDate
	overlaySelect
	overlayIssue
	overlayTimetracking
	overlayWorklog
	overlayComment
	overlayQuit
)

// --- App model ---

// App is the root bubbletea model of the issue editor.
type App struct {
	width  int
	height int
	ready  bool

	req  Requester
	opts Options
	keys Keymap
	log  *slog.Logger

	session  dispatch.Session
	debounce *dispatch.Debouncer
	form     formView
	spinner  spinner.Model
	touched  bool // create form has local edits

	overlay      overlay     // active overlay (nil = none)
	overlayField string      // field key the overlay edits
	overlayKind  overlayKind // which action the overlay result maps to
	overlayURL   string      // search endpoint of an async list

	flash      string // transient status message
	flashIsErr bool   // true if the flash is an error
}

// NewApp creates the editor model.
func NewApp(req Requester, opts Options) App {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = loadingStyle

	session := dispatch.NewSession(opts.Mode)
	session.IssueKey = opts.IssueKey
	session.ProjectKey = opts.ProjectKey
	session.IssueType = opts.IssueType

	return App{
		req:      req,
		opts:     opts,
		keys:     DefaultKeymap(),
		log:      logger,
		session:  session,
		debounce: dispatch.NewDebouncer(opts.Debounce),
		form:     newFormView(0, 0),
		spinner:  sp,
	}
}

// Session returns the current edit session snapshot.
func (a App) Session() dispatch.Session {
	return a.session
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.req == nil {
		return nil
	}
	return tea.Batch(a.spinner.Tick, a.refresh())
}

// refresh asks the host for the form schema and values.
func (a App) refresh() tea.Cmd {
	if a.session.Mode == fields.ModeEdit {
		return a.post(protocol.RefreshIssue{IssueKey: a.session.IssueKey})
	}
	return a.post(protocol.RefreshIssue{ProjectKey: a.opts.ProjectKey, IssueType: a.opts.IssueType})
}

// post returns a Cmd that hands msg to the host.
func (a App) post(msg protocol.Message) tea.Cmd {
	req := a.req
	if req == nil {
		return nil
	}
	return func() tea.Msg {
		if err := req.Post(msg); err != nil {
			return postFailedMsg{err: err}
		}
		return nil
	}
}

func (a App) renderContext() render.Context {
	return render.Context{
		IssueType:      a.session.IssueType,
		ProjectKey:     a.session.ProjectKey,
		RichText:       a.opts.RichText || a.session.Flag(FlagRichText),
		EpicIssueTypes: a.opts.EpicIssueTypes,
		Templates:      a.opts.Templates,
		Now:            time.Now(),
	}
}

// rebuild re-renders every widget from the session.
func (a *App) rebuild() {
	widgets := render.RenderAll(a.session.Fields, a.session.Mode, a.session.Values, a.renderContext())
	a.form.setWidgets(widgets)
	a.redraw()
}

// redraw lays out the current widgets again without re-rendering them.
func (a *App) redraw() {
	spin := ""
	if a.session.IsLoading {
		spin = a.spinner.View()
	}
	a.form.build(a.session.LoadingField, spin)
}

func (a *App) reduce(action dispatch.Action) {
	a.session = dispatch.Reduce(a.session, action)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.form.setSize(a.width, a.height)
		a.rebuild()

	case inboundMsg:
		cmd := a.apply(msg.msg)
		return a, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.session.IsLoading && a.ready {
			a.redraw()
		}
		return a, cmd

	case debounceMsg:
		v, ok := a.debounce.Fire(msg.key, msg.seq)
		if !ok {
			return a, nil
		}
		cmd := a.dispatchEdit(msg.key, v)
		return a, cmd

	case searchMsg:
		q, ok := a.debounce.Fire(searchKey(msg.fieldKey), msg.seq)
		if !ok {
			return a, nil
		}
		query, _ := q.(string)
		return a, a.search(msg.fieldKey, query)

	case queryChangedMsg:
		if msg.fieldKey == "" || msg.fieldKey != a.overlayField {
			return a, nil
		}
		field := msg.fieldKey
		seq := a.debounce.Schedule(searchKey(field), msg.query)
		return a, tea.Tick(a.debounce.Window, func(time.Time) tea.Msg {
			return searchMsg{fieldKey: field, seq: seq}
		})

	case issuesFetchedMsg:
		if s, ok := a.overlay.(*selectionOverlay); ok && a.overlayField == msg.fieldKey {
			s.setItems(msg.query, issueItems(msg.issues))
		}

	case optionsFetchedMsg:
		if s, ok := a.overlay.(*selectionOverlay); ok && a.overlayField == msg.fieldKey {
			f, _ := a.session.Field(msg.fieldKey)
			s.setItems(msg.query, optionItems(f, msg.options))
		}

	case selectionToggledMsg:
		if msg.fieldKey == "" {
			return a, nil
		}
		cmd := a.commit(msg.fieldKey, msg.selected, true)
		return a, cmd

	case optionCreatedMsg:
		if msg.err != nil {
			a.log.Warn("creating option failed", "error", msg.err)
			a.reduce(dispatch.CreateOptionFailed{Reason: msg.err.Error()})
		} else if action, ok := dispatch.FromMessage(msg.reply); ok {
			a.reduce(action)
			if v, ok := a.session.Values[msg.reply.FieldKey]; ok && a.session.Mode == fields.ModeEdit {
				a.rebuild()
				return a, a.dispatchEdit(msg.reply.FieldKey, v)
			}
		}
		a.rebuild()

	case postFailedMsg:
		a.log.Error("posting to host failed", "error", msg.err)
		a.reduce(dispatch.ServerError{Reason: msg.err.Error()})
		a.rebuild()

	case flashMsg:
		a.flash = msg.text
		a.flashIsErr = msg.isErr

	case tea.KeyMsg:
		a.flash = "" // clear flash on any keypress
		return a.handleKey(msg)
	}
	return a, nil
}

// apply folds a host push into the session.
func (a *App) apply(m protocol.Message) tea.Cmd {
	// Correlated replies reach here only when their request stopped waiting.
	if c, ok := m.(protocol.Correlated); ok && c.CorrelationID() != "" {
		a.log.Debug("dropping late reply", "type", m.MessageType(), "nonce", c.CorrelationID())
		return nil
	}
	action, ok := dispatch.FromMessage(m)
	if !ok {
		a.log.Debug("ignoring message", "type", m.MessageType())
		return nil
	}
	a.reduce(action)

	var cmd tea.Cmd
	switch m := m.(type) {
	case protocol.IssueCreated:
		a.flash = "Created " + m.Key
		a.flashIsErr = false
		a.touched = false
		cmd = a.refresh()
	case protocol.EditIssueData:
		a.touched = false
	}
	if a.ready {
		a.rebuild()
	}
	return cmd
}

// handleKey processes key input.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	// If an overlay is active, route ALL keys to it
	if a.overlay != nil {
		var cmd tea.Cmd
		a.overlay, cmd = a.overlay.Update(msg)
		if isDone, result := a.overlay.done(); isDone {
			model, resultCmd := a.handleOverlayResult(result)
			return model, tea.Batch(cmd, resultCmd)
		}
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.session.Mode == fields.ModeCreate && a.touched {
			a.overlay = newConfirmOverlay("Discard this new issue?")
			a.overlayKind = overlayQuit
			return a, nil
		}
		return a, a.quit()

	case key.Matches(msg, a.keys.Dismiss):
		if a.session.Error.Open {
			a.reduce(dispatch.DismissError{})
		} else {
			a.reduce(dispatch.CancelEdit{})
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		a.form.move(-1)
		a.redraw()
		return a, nil

	case key.Matches(msg, a.keys.Down):
		a.form.move(1)
		a.redraw()
		return a, nil

	case key.Matches(msg, a.keys.Edit):
		return a.beginEdit()

	case key.Matches(msg, a.keys.Clear):
		cmd := a.clearField()
		return a, cmd

	case key.Matches(msg, a.keys.Comment):
		if a.session.Mode != fields.ModeEdit || !a.session.Loaded {
			return a, nil
		}
		a.overlay = newTextEditorOverlay("Add Comment", "", a.width, a.height, nil)
		a.overlayKind = overlayComment
		a.overlayField = "comment"
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		if a.session.Mode == fields.ModeCreate {
			cmd := a.submitCreate()
			return a, cmd
		}
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a, a.refresh()

	case key.Matches(msg, a.keys.Open):
		if a.session.IssueKey == "" {
			return a, nil
		}
		issueKey := a.session.IssueKey
		req := a.req
		return a, func() tea.Msg {
			if err := req.OpenJiraIssue(issueKey); err != nil {
				return flashMsg{text: err.Error(), isErr: true}
			}
			return flashMsg{text: "Copied URL of " + issueKey}
		}

	case key.Matches(msg, a.keys.CopyKey):
		if a.session.IssueKey == "" {
			return a, nil
		}
		if err := a.opts.Clipboard(a.session.IssueKey); err != nil {
			a.flash = "Clipboard unavailable"
			a.flashIsErr = true
		} else {
			a.flash = "Copied " + a.session.IssueKey
			a.flashIsErr = false
		}
		return a, nil
	}

	// Delegate remaining keys to the viewport (page up/down)
	cmd := a.form.Update(msg)
	return a, cmd
}

// --- Editing ---

// beginEdit opens the inline editor of the field under the cursor.
func (a App) beginEdit() (tea.Model, tea.Cmd) {
	w := a.form.selected()
	if w == nil {
		return a, nil
	}
	f := w.Descriptor()

	if c, ok := w.(render.CommentsWidget); ok {
		if a.session.Mode != fields.ModeEdit {
			return a, nil
		}
		a.overlay = newTextEditorOverlay(fmt.Sprintf("Add Comment (%d so far)", c.Total), "", a.width, a.height, nil)
		a.overlayKind = overlayComment
		a.overlayField = f.Key
		return a, nil
	}

	a.reduce(dispatch.BeginEdit{FieldKey: f.Key})
	if a.session.EditingField != f.Key {
		a.flash = f.Name + " can't be edited"
		a.flashIsErr = true
		return a, nil
	}
	a.overlayField = f.Key
	a.overlayURL = ""

	var cmd tea.Cmd
	switch w := w.(type) {
	case render.TextWidget:
		a.overlayKind = overlayText
		if w.Multiline {
			title := "Edit " + f.Name
			if w.RichText {
				title += " (rich text)"
			}
			a.overlay = newTextEditorOverlay(title, w.Value, a.width, a.height, dispatchValidator(w))
		} else {
			a.overlay = newTextInputOverlay("Edit "+f.Name, w.Value, dispatchValidator(w))
		}

	case render.DateWidget:
		a.overlayKind = overlayDate
		a.overlay = newTextInputOverlay(fmt.Sprintf("Edit %s (%s)", f.Name, dateHint(w.WithTime)), w.Value, dispatchValidator(w))

	case render.SelectWidget:
		a.overlayKind = overlaySelect
		a.overlay = newSelectionOverlay(f.Name, optionItems(f, w.Options), selectionOptions{
			fieldKey:  f.Key,
			multi:     w.Multi,
			async:     w.Variant.Async(),
			creatable: w.Variant.Creatable(),
			selected:  w.Selected,
		})
		if w.Variant.Async() {
			cmd = a.search(f.Key, "")
		}

	case render.CheckboxWidget:
		a.overlayKind = overlaySelect
		a.overlay = newSelectionOverlay(f.Name, optionItems(f, w.Options), selectionOptions{fieldKey: f.Key, multi: true, selected: w.Selected})

	case render.RadioWidget:
		a.overlayKind = overlaySelect
		var selected []fields.Option
		if w.Selected != nil {
			selected = []fields.Option{*w.Selected}
		}
		a.overlay = newSelectionOverlay(f.Name, optionItems(f, w.Options), selectionOptions{fieldKey: f.Key, selected: selected})

	case render.IssueLinkWidget:
		a.overlayKind = overlayIssue
		a.overlayURL = w.PickerURL
		a.overlay = newSelectionOverlay(f.Name, nil, selectionOptions{fieldKey: f.Key, async: true})
		cmd = a.search(f.Key, "")

	case render.TimetrackingWidget:
		a.overlayKind = overlayTimetracking
		a.overlay = newFormOverlay(f.Name,
			[]string{"originalEstimate", "remainingEstimate"},
			[]string{"Original estimate", "Remaining estimate"},
			[]string{w.OriginalEstimate, w.RemainingEstimate},
			func(v map[string]string) map[string]string {
				errs := map[string]string{}
				if msg := w.ValidateEstimate("Original estimate", v["originalEstimate"]); msg != "" {
					errs["originalEstimate"] = msg
				}
				if msg := w.ValidateEstimate("Remaining estimate", v["remainingEstimate"]); msg != "" {
					errs["remainingEstimate"] = msg
				}
				return errs
			})

	case render.WorklogWidget:
		a.overlayKind = overlayWorklog
		a.overlay = newFormOverlay("Log work",
			[]string{render.WorklogTimeSpent, render.WorklogNewEstimate, render.WorklogStarted, render.WorklogComment},
			[]string{"Time spent (e.g. 3h 30m)", "Remaining estimate", "Started (" + dateHint(true) + ")", "Work description"},
			[]string{w.TimeSpent, w.NewEstimate, w.Started, w.Comment},
			func(v map[string]string) map[string]string {
				return worklogFrom(w, v).Validate()
			})

	default:
		a.reduce(dispatch.CancelEdit{})
		a.overlayField = ""
		a.flash = f.Name + " can't be edited"
		a.flashIsErr = true
		return a, nil
	}
	return a, cmd
}

// handleOverlayResult processes the result of a completed overlay. Called
// when overlay.done() returns true.
func (a App) handleOverlayResult(result interface{}) (tea.Model, tea.Cmd) {
	field := a.overlayField
	kind := a.overlayKind
	a.overlay = nil
	a.overlayField = ""
	a.overlayKind = overlayNone
	a.overlayURL = ""

	if result == nil {
		a.reduce(dispatch.CancelEdit{})
		a.rebuild()
		return a, nil
	}

	f, _ := a.session.Field(field)
	var cmd tea.Cmd
	switch kind {
	case overlayText:
		cmd = a.commit(field, dispatch.CoerceInput(f, result.(string)), false)

	case overlayDate:
		cmd = a.commit(field, dispatch.CoerceInput(f, result.(string)), false)

	case overlaySelect:
		switch r := result.(type) {
		case *selectionItem:
			cmd = a.commit(field, r.Option, true)
		case createRequest:
			cmd = a.createOption(f, r.text)
		case []fields.Option:
			// toggles were committed as they happened
			a.reduce(dispatch.CancelEdit{})
		}

	case overlayIssue:
		if r, ok := result.(*selectionItem); ok && r.Issue != nil {
			cmd = a.commit(field, *r.Issue, true)
		}

	case overlayTimetracking:
		v := result.(map[string]string)
		tt := map[string]any{}
		for _, k := range []string{"originalEstimate", "remainingEstimate"} {
			if v[k] != "" {
				tt[k] = v[k]
			}
		}
		cmd = a.commit(field, tt, false)

	case overlayWorklog:
		v := result.(map[string]string)
		wl := map[string]any{"enabled": worklogEnabled(v)}
		for k, s := range v {
			wl[k] = s
		}
		cmd = a.commit(field, wl, false)

	case overlayComment:
		text := strings.TrimSpace(result.(string))
		if text != "" {
			cmd = a.post(protocol.AddComment{IssueKey: a.session.IssueKey, Body: text})
		}

	case overlayQuit:
		return a, tea.Quit
	}
	a.rebuild()
	return a, cmd
}

// commit applies v to field optimistically. In edit mode it dispatches the
// edit, after the debounce window when debounced is set.
func (a *App) commit(field string, v any, debounced bool) tea.Cmd {
	if a.rejectSelection(field, v) != "" {
		return nil
	}
	a.reduce(dispatch.LocalEdit{FieldKey: field, Value: v})
	if a.session.Mode == fields.ModeCreate {
		a.touched = true
		a.rebuild()
		if field == "issuetype" {
			// another issue type has its own create schema
			if sel := fields.OptionsFromValue(v); len(sel) > 0 && sel[0].ID != a.session.IssueTypeID {
				a.opts.IssueType = sel[0].ID
				return a.refresh()
			}
		}
		return nil
	}
	if debounced {
		seq := a.debounce.Schedule(field, v)
		a.rebuild()
		return tea.Tick(a.debounce.Window, func(time.Time) tea.Msg {
			return debounceMsg{key: field, seq: seq}
		})
	}
	a.debounce.Cancel(field)
	return a.dispatchEdit(field, v)
}

// quit sends any edit still inside its debounce window, then quits.
func (a *App) quit() tea.Cmd {
	var flush []tea.Cmd
	for _, f := range a.session.Fields {
		if !a.debounce.Pending(f.Key) {
			continue
		}
		v, _ := a.debounce.Take(f.Key)
		if cmd := a.dispatchEdit(f.Key, v); cmd != nil {
			flush = append(flush, cmd)
		}
	}
	if len(flush) == 0 {
		return tea.Quit
	}
	logger := a.log
	return func() tea.Msg {
		for _, cmd := range flush {
			if failed, ok := cmd().(postFailedMsg); ok {
				logger.Warn("sending pending edit on quit failed", "error", failed.err)
			}
		}
		return tea.QuitMsg{}
	}
}

// rejectSelection refuses clearing a required select on an existing issue
// before the value reaches the session. A create form allows it until submit.
func (a *App) rejectSelection(field string, v any) string {
	if a.session.Mode != fields.ModeEdit {
		return ""
	}
	f, ok := a.session.Field(field)
	if !ok || !isSelectLike(f) {
		return ""
	}
	msg := dispatch.ValidateSelection(f, fields.OptionsFromValue(v))
	if msg == "" {
		return ""
	}
	a.flash = msg
	a.flashIsErr = true
	if s, ok := a.overlay.(*selectionOverlay); ok && a.overlayField == field {
		s.reject(fields.OptionsFromValue(a.session.Values[field]), msg)
	}
	return msg
}

// dispatchEdit sends one field edit to the host.
func (a *App) dispatchEdit(field string, v any) tea.Cmd {
	f, ok := a.session.Field(field)
	if !ok {
		return nil
	}
	if isSelectLike(f) {
		if msg := dispatch.ValidateSelection(f, fields.OptionsFromValue(v)); msg != "" {
			a.flash = msg
			a.flashIsErr = true
			return nil
		}
	}
	a.reduce(dispatch.DispatchStarted{FieldKey: field})
	if a.ready {
		a.rebuild()
	}
	a.log.Debug("dispatching edit", "issue", a.session.IssueKey, "field", field)
	return a.post(dispatch.EditMessage(a.session.IssueKey, f, v))
}

// clearField empties the field under the cursor when its widget allows it.
func (a *App) clearField() tea.Cmd {
	w := a.form.selected()
	if w == nil {
		return nil
	}
	f := w.Descriptor()
	clearable := false
	switch w := w.(type) {
	case render.SelectWidget:
		clearable = w.Clearable
	case render.DateWidget:
		clearable = !f.Required
	case render.IssueLinkWidget:
		clearable = !f.Required
	}
	if !clearable {
		a.flash = f.Name + " can't be cleared"
		a.flashIsErr = true
		return nil
	}
	return a.commit(f.Key, nil, false)
}

// createOption creates a new option for a creatable select.
func (a *App) createOption(f fields.Descriptor, text string) tea.Cmd {
	nonce := protocol.NewNonce()
	a.reduce(dispatch.CreateOptionRequested{FieldKey: f.Key, InputText: text, Nonce: nonce})
	req := protocol.CreateOption{
		FieldKey:    f.Key,
		SiteDetails: a.session.Site,
		CreateURL:   f.CreateURL,
		CreateData:  map[string]any{"name": text, "project": a.session.ProjectKey},
		Nonce:       nonce,
	}
	r := a.req
	return func() tea.Msg {
		reply, err := r.CreateOption(context.Background(), req)
		return optionCreatedMsg{reply: reply, err: err}
	}
}

// search loads the options of an open async list for query.
func (a App) search(fieldKey, query string) tea.Cmd {
	f, ok := a.session.Field(fieldKey)
	if !ok || a.req == nil {
		return nil
	}
	r := a.req
	site := a.session.Site
	if f.UIType == fields.UIIssueLink {
		url := a.overlayURL
		return func() tea.Msg {
			issues := r.FetchIssues(context.Background(), protocol.FetchIssues{Query: query, Site: site, AutoCompleteURL: url})
			return issuesFetchedMsg{fieldKey: fieldKey, query: query, issues: issues}
		}
	}
	return func() tea.Msg {
		opts := r.FetchSelectOptions(context.Background(), protocol.FetchSelectOptions{
			Query:           query,
			Site:            site,
			AutoCompleteURL: f.AutoCompleteURL,
			FieldName:       f.Name,
			FieldKey:        f.Key,
		})
		return optionsFetchedMsg{fieldKey: fieldKey, query: query, options: opts}
	}
}

// submitCreate sends the create form once required fields are filled.
func (a *App) submitCreate() tea.Cmd {
	if missing := dispatch.MissingRequired(a.session.Fields, a.session.Values); len(missing) > 0 {
		a.flash = "Missing required: " + strings.Join(missing, ", ")
		a.flashIsErr = true
		return nil
	}

	var worklog *protocol.Worklog
	for _, w := range a.form.widgets {
		wl, ok := w.(render.WorklogWidget)
		if !ok || !wl.Enabled {
			continue
		}
		if errs := wl.Validate(); len(errs) > 0 {
			a.flash = "Log work: " + firstError(errs)
			a.flashIsErr = true
			return nil
		}
		worklog = &protocol.Worklog{
			TimeSpent:   wl.TimeSpent,
			NewEstimate: wl.NewEstimate,
			Started:     wl.Started,
			Comment:     wl.Comment,
		}
	}

	a.reduce(dispatch.DispatchStarted{})
	return a.post(protocol.CreateIssue{
		ProjectKey:  a.session.ProjectKey,
		IssueTypeID: a.session.IssueTypeID,
		FieldValues: dispatch.CreatePayload(a.session.Fields, a.session.Values),
		Worklog:     worklog,
	})
}

// --- View ---

// View implements tea.Model.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	sections := []string{a.renderHeader()}
	if a.session.Error.Open {
		sections = append(sections, bannerStyle.Width(a.width).Render("✖ "+a.session.Error.Reason))
	}

	switch {
	case a.overlay != nil:
		sections = append(sections, a.overlay.View(a.width, a.height-2))
	case !a.session.Loaded:
		sections = append(sections, loadingStyle.Render(a.spinner.View()+" Loading fields..."))
	default:
		sections = append(sections, a.form.View())
	}

	sections = append(sections, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a App) renderHeader() string {
	s := a.session
	mode := strings.ToUpper(s.Mode.String())
	var title string
	if s.Mode == fields.ModeEdit {
		title = formKeyStyle.Render(s.IssueKey)
	} else {
		title = titleStyle.Render("New issue in " + s.ProjectKey)
	}
	if s.IssueType != "" {
		title += formDimStyle.Render(" · " + s.IssueType)
	}
	return headerBarStyle.Render(modeStyle.Render(mode) + " " + title)
}

// renderStatusBar draws the bottom help/status line.
func (a App) renderStatusBar() string {
	var parts []string

	if a.session.IsLoading && a.session.LoadingField == "" {
		parts = append(parts, loadingStyle.Render(a.spinner.View()+" Working..."))
	}

	if a.flash != "" {
		if a.flashIsErr {
			parts = append(parts, errorStyle.Render(a.flash))
		} else {
			parts = append(parts, successStyle.Render(a.flash))
		}
	}

	if a.session.ShowPMF {
		parts = append(parts, feedbackStyle.Render("★ feedback welcome"))
	}

	k := a.keys
	if a.session.Mode == fields.ModeCreate {
		parts = append(parts, helpLine(k.Up, k.Down, k.Edit, k.Clear, k.Submit, k.Quit))
	} else {
		parts = append(parts, helpLine(k.Up, k.Down, k.Edit, k.Clear, k.Comment, k.Open, k.CopyKey, k.Refresh, k.Quit))
	}

	return strings.Join(parts, helpStyle.Render("  │  "))
}

// --- Helpers ---

func searchKey(fieldKey string) string {
	return "search:" + fieldKey
}

func dispatchValidator(w render.Widget) func(string) string {
	return func(s string) string { return dispatch.ValidateForDispatch(w, s) }
}

func isSelectLike(f fields.Descriptor) bool {
	switch f.UIType {
	case fields.UISelect, fields.UICheckbox, fields.UIRadio:
		return true
	}
	return false
}

func dateHint(withTime bool) string {
	if withTime {
		return "YYYY-MM-DDThh:mm:ss.000+0000"
	}
	return "YYYY-MM-DD"
}

func optionItems(f fields.Descriptor, opts []fields.Option) []selectionItem {
	items := make([]selectionItem, 0, len(opts))
	for _, o := range opts {
		item := selectionItem{ID: o.ID, Label: o.Label(), Option: o}
		if f.ValueType == fields.ValuePriority {
			if icon := priorityIcon(o.Label()); icon != "" {
				item.Display = priorityLabel(o.Label())
			}
		}
		if f.ValueType == fields.ValueUser && o.Raw != nil {
			item.Desc = fields.StringOf(o.Raw["emailAddress"])
		}
		items = append(items, item)
	}
	return items
}

func issueItems(issues []fields.IssueSuggestion) []selectionItem {
	items := make([]selectionItem, 0, len(issues))
	for i := range issues {
		is := issues[i]
		items = append(items, selectionItem{
			ID:    is.Key,
			Label: is.Key,
			Desc:  is.SummaryText,
			Issue: &is,
		})
	}
	return items
}

func worklogEnabled(v map[string]string) bool {
	for _, s := range v {
		if s != "" {
			return true
		}
	}
	return false
}

func worklogFrom(w render.WorklogWidget, v map[string]string) render.WorklogWidget {
	w.Enabled = worklogEnabled(v)
	w.TimeSpent = v[render.WorklogTimeSpent]
	w.NewEstimate = v[render.WorklogNewEstimate]
	w.Started = v[render.WorklogStarted]
	w.Comment = v[render.WorklogComment]
	return w
}

func firstError(errs map[string]string) string {
	for _, k := range []string{render.WorklogTimeSpent, render.WorklogNewEstimate, render.WorklogStarted, render.WorklogComment} {
		if msg, ok := errs[k]; ok {
			return msg
		}
	}
	return ""
}
