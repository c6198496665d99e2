package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

// fakeRequester records posted messages and answers searches from canned data.
type fakeRequester struct {
	posted    []protocol.Message
	options   []fields.Option
	issues    []fields.IssueSuggestion
	created   protocol.OptionCreated
	createErr error
	lastFetch protocol.FetchSelectOptions
	opened    []string
}

func (f *fakeRequester) FetchIssues(_ context.Context, req protocol.FetchIssues) []fields.IssueSuggestion {
	return f.issues
}

func (f *fakeRequester) FetchSelectOptions(_ context.Context, req protocol.FetchSelectOptions) []fields.Option {
	f.lastFetch = req
	return f.options
}

func (f *fakeRequester) CreateOption(_ context.Context, req protocol.CreateOption) (protocol.OptionCreated, error) {
	f.posted = append(f.posted, req)
	return f.created, f.createErr
}

func (f *fakeRequester) OpenJiraIssue(key string) error {
	f.opened = append(f.opened, key)
	return nil
}

func (f *fakeRequester) Post(msg protocol.Message) error {
	f.posted = append(f.posted, msg)
	return nil
}

func (f *fakeRequester) edits() []protocol.EditIssue {
	var out []protocol.EditIssue
	for _, m := range f.posted {
		if e, ok := m.(protocol.EditIssue); ok {
			out = append(out, e)
		}
	}
	return out
}

// runCmd executes cmd, expanding batches, and returns the non-nil messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed sends msg to app, then feeds every message its commands produce.
func feed(t *testing.T, app App, msg tea.Msg) App {
	t.Helper()
	model, cmd := app.Update(msg)
	app = model.(App)
	for _, m := range runCmd(cmd) {
		app = feed(t, app, m)
	}
	return app
}

// typeText sends s one rune at a time, dropping the cursor blink commands.
func typeText(app App, s string) App {
	for _, r := range s {
		model, _ := app.Update(keyMsg(string(r)))
		app = model.(App)
	}
	return app
}

func testOptions(mode fields.Mode) Options {
	return Options{
		Mode:       mode,
		IssueKey:   "PROJ-1",
		ProjectKey: "PROJ",
		Debounce:   time.Millisecond,
		Clipboard:  func(string) error { return nil },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func editSchema() protocol.EditIssueData {
	return protocol.EditIssueData{
		Mode:       fields.ModeEdit,
		IssueKey:   "PROJ-1",
		IssueType:  "Task",
		ProjectKey: "PROJ",
		Fields: []fields.Descriptor{
			{Key: "summary", Name: "Summary", UIType: fields.UIInput, ValueType: fields.ValueString, Required: true, DisplayOrder: 0},
			{Key: "priority", Name: "Priority", UIType: fields.UISelect, ValueType: fields.ValuePriority, DisplayOrder: 1,
				AllowedValues: []fields.Option{{ID: "1", Name: "High"}, {ID: "3", Name: "Medium"}}},
			{Key: "labels", Name: "Labels", UIType: fields.UISelect, ValueType: fields.ValueString, IsArray: true, IsMulti: true, DisplayOrder: 2,
				AllowedValues: []fields.Option{{Value: "backend"}, {Value: "frontend"}}},
			{Key: "customfield_1", Name: "Story Points", UIType: fields.UIInput, ValueType: fields.ValueNumber, DisplayOrder: 3},
			{Key: "created", Name: "Created", UIType: fields.UINonEditable, ValueType: fields.ValueDateTime, DisplayOrder: 4},
		},
		FieldValues: map[string]any{
			"summary":  "Fix login",
			"priority": map[string]any{"id": "3", "name": "Medium"},
		},
	}
}

func loadedApp(t *testing.T, mode fields.Mode, data protocol.EditIssueData) (App, *fakeRequester) {
	t.Helper()
	req := &fakeRequester{}
	app := NewApp(req, testOptions(mode))
	app = feed(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})
	app = feed(t, app, Inbound(data))
	return app, req
}

func TestAppInitWithoutRequester(t *testing.T) {
	app := NewApp(nil, testOptions(fields.ModeEdit))
	if cmd := app.Init(); cmd != nil {
		t.Error("Init() should return nil cmd without a requester")
	}
}

func TestNewAppWithoutLoggerStaysQuiet(t *testing.T) {
	opts := testOptions(fields.ModeEdit)
	opts.Logger = nil
	app := NewApp(nil, opts)
	if app.log == nil || app.log == slog.Default() {
		t.Error("expected a discarding logger when none is configured")
	}
}

func TestQuitSendsPendingEdits(t *testing.T) {
	for _, quitKey := range []tea.KeyMsg{keyMsg("q"), {Type: tea.KeyCtrlC}} {
		app, req := loadedApp(t, fields.ModeEdit, editSchema())
		model, tick := app.Update(selectionToggledMsg{fieldKey: "labels", selected: []fields.Option{{Value: "backend"}}})
		app = model.(App)

		model, cmd := app.Update(quitKey)
		app = model.(App)
		if cmd == nil {
			t.Fatal("expected quit command, got nil")
		}
		if len(req.edits()) != 0 {
			t.Fatal("edit must be sent by the quit command, not by Update")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected QuitMsg after flushing")
		}
		edits := req.edits()
		if len(edits) != 1 || edits[0].FieldKey != "labels" {
			t.Fatalf("expected the pending labels edit on %s, got %#v", quitKey.String(), edits)
		}

		// the original timer fires after quitting and must not resend
		for _, m := range runCmd(tick) {
			app = feed(t, app, m)
		}
		if got := len(req.edits()); got != 1 {
			t.Errorf("expected the flushed edit sent once, got %d", got)
		}
	}
}

func TestAppRefreshPostsIssueKey(t *testing.T) {
	req := &fakeRequester{}
	app := NewApp(req, testOptions(fields.ModeEdit))
	runCmd(app.refresh())

	if len(req.posted) != 1 {
		t.Fatalf("expected 1 posted message, got %d", len(req.posted))
	}
	got, ok := req.posted[0].(protocol.RefreshIssue)
	if !ok || got.IssueKey != "PROJ-1" {
		t.Errorf("expected refresh of PROJ-1, got %#v", req.posted[0])
	}
}

func TestAppQuitOnQ(t *testing.T) {
	app := NewApp(nil, testOptions(fields.ModeEdit))
	_, cmd := app.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command, got nil")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestAppQuitOnCtrlC(t *testing.T) {
	app := NewApp(nil, testOptions(fields.ModeEdit))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command, got nil")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestAppViewBeforeReady(t *testing.T) {
	app := NewApp(nil, testOptions(fields.ModeEdit))
	if view := app.View(); !strings.Contains(view, "Loading") {
		t.Errorf("expected loading message, got: %s", view)
	}
}

func TestAppRendersLoadedSchema(t *testing.T) {
	app, _ := loadedApp(t, fields.ModeEdit, editSchema())

	view := app.View()
	for _, want := range []string{"PROJ-1", "Summary", "Fix login", "Priority", "Medium", "Story Points"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !app.Session().Loaded {
		t.Error("expected session to be loaded")
	}
}

func TestSelectEditsAreDebounced(t *testing.T) {
	app, req := loadedApp(t, fields.ModeEdit, editSchema())

	// Two toggles inside the window: each schedules a tick, only the last fires.
	model, first := app.Update(selectionToggledMsg{fieldKey: "labels", selected: []fields.Option{{Value: "backend"}}})
	app = model.(App)
	model, second := app.Update(selectionToggledMsg{fieldKey: "labels", selected: []fields.Option{{Value: "backend"}, {Value: "frontend"}}})
	app = model.(App)

	if got := len(req.edits()); got != 0 {
		t.Fatalf("expected no edit before the window closes, got %d", got)
	}
	for _, m := range runCmd(first) {
		app = feed(t, app, m)
	}
	if got := len(req.edits()); got != 0 {
		t.Fatalf("superseded tick must not dispatch, got %d edits", got)
	}
	for _, m := range runCmd(second) {
		app = feed(t, app, m)
	}

	edits := req.edits()
	if len(edits) != 1 {
		t.Fatalf("expected exactly 1 edit, got %d", len(edits))
	}
	labels, _ := edits[0].FieldValues["labels"].([]any)
	if len(labels) != 2 || labels[0] != "backend" || labels[1] != "frontend" {
		t.Errorf("expected last value to win, got %#v", edits[0].FieldValues["labels"])
	}
	if s := app.Session(); !s.IsLoading || s.LoadingField != "labels" {
		t.Errorf("expected labels to hold the loading slot, got %v %q", s.IsLoading, s.LoadingField)
	}
}

func TestAcknowledgeClearsLoading(t *testing.T) {
	app, _ := loadedApp(t, fields.ModeEdit, editSchema())
	app = feed(t, app, selectionToggledMsg{fieldKey: "labels", selected: []fields.Option{{Value: "backend"}}})

	app = feed(t, app, Inbound(protocol.FieldValueUpdate{
		FieldKey:    "labels",
		FieldValues: map[string]any{"labels": []any{"backend"}},
	}))
	if app.Session().IsLoading {
		t.Error("expected loading cleared after acknowledgement")
	}
}

func TestTextEditValidationKeepsOverlayOpen(t *testing.T) {
	app, req := loadedApp(t, fields.ModeEdit, editSchema())

	// move to Story Points (summary, priority, labels, story points)
	for i := 0; i < 3; i++ {
		app = feed(t, app, keyMsg("j"))
	}
	app = feed(t, app, keyMsg("enter"))
	if app.overlay == nil {
		t.Fatal("expected an overlay after enter")
	}
	if got := app.Session().EditingField; got != "customfield_1" {
		t.Fatalf("expected Story Points in edit, got %q", got)
	}

	app = typeText(app, "abc")
	app = feed(t, app, keyMsg("enter"))
	if app.overlay == nil {
		t.Fatal("overlay closed despite invalid number")
	}
	if !strings.Contains(app.View(), "Story Points must be a number") {
		t.Error("expected inline validation message")
	}
	if len(req.edits()) != 0 {
		t.Error("invalid input must not be dispatched")
	}

	app = feed(t, app, keyMsg("esc"))
	if app.overlay != nil || app.Session().EditingField != "" {
		t.Error("esc should cancel the edit")
	}
}

func TestTextEditDispatchesImmediately(t *testing.T) {
	app, req := loadedApp(t, fields.ModeEdit, editSchema())

	app = feed(t, app, keyMsg("enter")) // summary
	o := app.overlay.(*textInputOverlay)
	o.input.SetValue("Fix logout")
	app = feed(t, app, keyMsg("enter"))

	edits := req.edits()
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if edits[0].FieldValues["summary"] != "Fix logout" {
		t.Errorf("unexpected payload %#v", edits[0].FieldValues)
	}
	if app.Session().Values["summary"] != "Fix logout" {
		t.Error("expected optimistic value")
	}
}

func TestServerErrorRevertsAndShowsBanner(t *testing.T) {
	app, _ := loadedApp(t, fields.ModeEdit, editSchema())

	app = feed(t, app, Inbound(protocol.Error{
		Reason:      "Summary is too long",
		FieldValues: map[string]any{"summary": "Fix login"},
	}))
	if !strings.Contains(app.View(), "Summary is too long") {
		t.Error("expected error banner")
	}

	app = feed(t, app, keyMsg("esc"))
	if app.Session().Error.Open {
		t.Error("esc should dismiss the banner")
	}
}

func TestLateReplyIsDropped(t *testing.T) {
	app, _ := loadedApp(t, fields.ModeEdit, editSchema())
	labels, _ := app.Session().Field("labels")
	before := len(labels.AllowedValues)

	app = feed(t, app, Inbound(protocol.OptionCreated{
		FieldKey:           "labels",
		FieldValues:        map[string]any{"labels": map[string]any{"value": "late"}},
		SelectFieldOptions: map[string][]map[string]any{"labels": {{"value": "late"}}},
		Nonce:              "expired",
	}))
	f, _ := app.Session().Field("labels")
	if len(f.AllowedValues) != before {
		t.Error("a reply whose request timed out must not change the session")
	}
}

func TestClearPriorityRefused(t *testing.T) {
	app, req := loadedApp(t, fields.ModeEdit, editSchema())
	app = feed(t, app, keyMsg("j")) // priority
	app = feed(t, app, keyMsg("x"))

	if !strings.Contains(app.View(), "Priority can't be cleared") {
		t.Error("expected refusal flash")
	}
	if len(req.edits()) != 0 {
		t.Error("priority must not be cleared")
	}
}

func TestCreateOptionAppendsAndDispatches(t *testing.T) {
	data := editSchema()
	data.Fields = append(data.Fields, fields.Descriptor{
		Key: "components", Name: "Components", UIType: fields.UISelect, ValueType: fields.ValueComponent,
		IsArray: true, IsMulti: true, CreateURL: "/rest/api/3/component", DisplayOrder: 5,
	})
	app, req := loadedApp(t, fields.ModeEdit, data)
	req.created = protocol.OptionCreated{
		FieldKey:           "components",
		FieldValues:        map[string]any{"components": map[string]any{"id": "10500", "name": "Backend"}},
		SelectFieldOptions: map[string][]map[string]any{"components": {{"id": "10500", "name": "Backend"}}},
	}

	f, _ := app.Session().Field("components")
	app.overlayField = "components"
	app.overlayKind = overlaySelect
	app.overlay = newSelectionOverlay("Components", nil, selectionOptions{fieldKey: "components", multi: true, creatable: true})
	app = typeText(app, "Backend")
	app = feed(t, app, keyMsg("enter"))

	created, _ := app.Session().Field("components")
	if len(created.AllowedValues) != len(f.AllowedValues)+1 {
		t.Fatalf("expected created option appended, got %d", len(created.AllowedValues))
	}
	if app.Session().PendingCreate != nil {
		t.Error("pending create should be cleared")
	}
	var sawCreate bool
	for _, m := range req.posted {
		if c, ok := m.(protocol.CreateOption); ok {
			sawCreate = true
			if c.CreateData["name"] != "Backend" || c.CreateData["project"] != "PROJ" || c.Nonce == "" {
				t.Errorf("unexpected create request %#v", c)
			}
		}
	}
	if !sawCreate {
		t.Error("expected a createOption request")
	}
	edits := req.edits()
	if len(edits) != 1 || edits[0].FieldKey != "components" {
		t.Fatalf("expected the new value to be dispatched, got %#v", edits)
	}
	got, _ := edits[0].FieldValues["components"].([]any)
	var sent map[string]any
	if len(got) == 1 {
		sent, _ = got[0].(map[string]any)
	}
	if len(sent) != 1 || sent["id"] != "10500" {
		t.Errorf("expected components sent as ids only, got %#v", edits[0].FieldValues["components"])
	}
}

func TestEmptyingRequiredMultiSelectKeepsValue(t *testing.T) {
	data := editSchema()
	data.Fields = append(data.Fields, fields.Descriptor{
		Key: "components", Name: "Components", UIType: fields.UISelect, ValueType: fields.ValueComponent,
		IsArray: true, IsMulti: true, Required: true, DisplayOrder: 5,
		AllowedValues: []fields.Option{{ID: "1", Name: "Backend"}},
	})
	data.FieldValues["components"] = []any{map[string]any{"id": "1", "name": "Backend"}}
	app, req := loadedApp(t, fields.ModeEdit, data)

	f, _ := app.Session().Field("components")
	app.overlayField = "components"
	app.overlayKind = overlaySelect
	app.overlay = newSelectionOverlay("Components", optionItems(f, f.AllowedValues), selectionOptions{
		fieldKey: "components",
		multi:    true,
		selected: []fields.Option{{ID: "1", Name: "Backend"}},
	})
	app = feed(t, app, keyMsg(" ")) // uncheck the only component

	if got := len(req.edits()); got != 0 {
		t.Fatalf("expected no edit for an empty required field, got %d", got)
	}
	if kept := fields.OptionsFromValue(app.Session().Values["components"]); len(kept) != 1 || kept[0].ID != "1" {
		t.Errorf("expected Backend to stay in the session, got %#v", app.Session().Values["components"])
	}
	s, ok := app.overlay.(*selectionOverlay)
	if !ok {
		t.Fatalf("expected the selection overlay to stay open, got %T", app.overlay)
	}
	if !s.isChecked(fields.Option{ID: "1", Name: "Backend"}) {
		t.Error("expected the refused toggle to be undone in the list")
	}
	if !strings.Contains(app.View(), "Components is required") {
		t.Error("expected the required message in the overlay")
	}

	// a valid toggle afterwards clears the message and dispatches
	s.items = append(s.items, selectionItem{ID: "2", Label: "API", Option: fields.Option{ID: "2", Name: "API"}})
	s.applyFilter()
	app = feed(t, app, keyMsg("down"))
	app = feed(t, app, keyMsg(" "))
	if s.errMsg != "" {
		t.Errorf("expected the message cleared, got %q", s.errMsg)
	}
	if got := len(req.edits()); got != 1 {
		t.Fatalf("expected the valid selection dispatched, got %d edits", got)
	}
}

func TestParentPickIsDebounced(t *testing.T) {
	data := editSchema()
	data.Fields = append(data.Fields, fields.Descriptor{
		Key: "parent", Name: "Parent", UIType: fields.UIIssueLink, ValueType: fields.ValueString, DisplayOrder: 6,
	})
	app, req := loadedApp(t, fields.ModeEdit, data)

	app.overlayField = "parent"
	app.overlayKind = overlayIssue
	model, cmd := app.handleOverlayResult(&selectionItem{ID: "PROJ-9", Label: "PROJ-9", Issue: &fields.IssueSuggestion{Key: "PROJ-9"}})
	app = model.(App)

	if got := len(req.edits()); got != 0 {
		t.Fatalf("expected no edit before the window closes, got %d", got)
	}
	for _, m := range runCmd(cmd) {
		app = feed(t, app, m)
	}
	edits := req.edits()
	if len(edits) != 1 || edits[0].FieldKey != "parent" {
		t.Fatalf("expected one parent edit after the window, got %#v", edits)
	}
	ref, _ := edits[0].FieldValues["parent"].(map[string]any)
	if ref["key"] != "PROJ-9" {
		t.Errorf("expected parent sent as a key reference, got %#v", edits[0].FieldValues["parent"])
	}
}

func TestCreateOptionFailureShowsBanner(t *testing.T) {
	app, _ := loadedApp(t, fields.ModeEdit, editSchema())
	app = feed(t, app, optionCreatedMsg{err: errors.New("Component name already exists")})

	if s := app.Session(); !s.Error.Open || s.Error.Reason != "Component name already exists" {
		t.Errorf("expected banner with the failure, got %#v", s.Error)
	}
}

func TestAsyncSearchIgnoresStaleResults(t *testing.T) {
	o := newSelectionOverlay("Assignee", nil, selectionOptions{fieldKey: "assignee", async: true})
	var ov overlay = o
	for _, ch := range "ad" {
		ov = updateOverlay(ov, keyMsg(string(ch)))
	}
	o.setItems("a", []selectionItem{{ID: "1", Label: "Stale"}})
	if len(o.items) != 0 {
		t.Error("results for an outdated query must be ignored")
	}
	o.setItems("ad", []selectionItem{{ID: "2", Label: "Ada"}})
	if len(o.filtered) != 1 {
		t.Errorf("expected 1 result, got %d", len(o.filtered))
	}
}

func TestAsyncSelectFetchesOnOpen(t *testing.T) {
	data := editSchema()
	data.Fields = append(data.Fields, fields.Descriptor{
		Key: "assignee", Name: "Assignee", UIType: fields.UISelect, ValueType: fields.ValueUser,
		AutoCompleteURL: "/rest/api/3/user/assignable/search?query=", DisplayOrder: -1,
	})
	app, req := loadedApp(t, fields.ModeEdit, data)
	req.options = []fields.Option{{ID: "a1", Name: "Ada"}}

	app = feed(t, app, keyMsg("enter")) // assignee sorts first
	if req.lastFetch.FieldKey != "assignee" || req.lastFetch.AutoCompleteURL == "" {
		t.Fatalf("expected an autocomplete fetch, got %#v", req.lastFetch)
	}
	s, ok := app.overlay.(*selectionOverlay)
	if !ok {
		t.Fatalf("expected selection overlay, got %T", app.overlay)
	}
	if len(s.filtered) != 1 || s.items[0].Label != "Ada" {
		t.Errorf("expected fetched options in the list, got %#v", s.items)
	}
}

func TestCreateSubmitRequiresFields(t *testing.T) {
	data := editSchema()
	data.Mode = fields.ModeCreate
	data.IssueKey = ""
	data.IssueTypeID = "10001"
	data.FieldValues = map[string]any{}
	app, req := loadedApp(t, fields.ModeCreate, data)

	app = feed(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !strings.Contains(app.View(), "Missing required: Summary") {
		t.Error("expected missing required message")
	}
	if len(req.posted) != 0 {
		t.Error("nothing should be posted while required fields are empty")
	}

	app = feed(t, app, keyMsg("enter"))
	app.overlay.(*textInputOverlay).input.SetValue("New bug")
	app = feed(t, app, keyMsg("enter"))
	if len(req.edits()) != 0 {
		t.Error("create mode must not dispatch edits")
	}

	app = feed(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(req.posted) != 1 {
		t.Fatalf("expected 1 create request, got %d", len(req.posted))
	}
	create, ok := req.posted[0].(protocol.CreateIssue)
	if !ok {
		t.Fatalf("expected CreateIssue, got %T", req.posted[0])
	}
	if create.ProjectKey != "PROJ" || create.IssueTypeID != "10001" || create.FieldValues["summary"] != "New bug" {
		t.Errorf("unexpected create request %#v", create)
	}
	if create.Worklog != nil {
		t.Error("no worklog expected")
	}
}

func TestIssueCreatedRefreshesForm(t *testing.T) {
	data := editSchema()
	data.Mode = fields.ModeCreate
	app, req := loadedApp(t, fields.ModeCreate, data)

	app = feed(t, app, Inbound(protocol.IssueCreated{Key: "PROJ-42"}))
	if !strings.Contains(app.View(), "Created PROJ-42") {
		t.Error("expected created flash")
	}
	if len(req.posted) != 1 {
		t.Fatalf("expected a refresh, got %d messages", len(req.posted))
	}
	if r, ok := req.posted[0].(protocol.RefreshIssue); !ok || r.ProjectKey != "PROJ" {
		t.Errorf("expected create refresh, got %#v", req.posted[0])
	}
}

func TestCommentPostsBody(t *testing.T) {
	app, req := loadedApp(t, fields.ModeEdit, editSchema())
	app = feed(t, app, keyMsg("c"))
	app.overlay.(*textEditorOverlay).editor.SetValue("Looks good")
	app = feed(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})

	if len(req.posted) != 1 {
		t.Fatalf("expected 1 message, got %d", len(req.posted))
	}
	c, ok := req.posted[0].(protocol.AddComment)
	if !ok || c.IssueKey != "PROJ-1" || c.Body != "Looks good" {
		t.Errorf("unexpected comment %#v", req.posted[0])
	}
}

func TestCopyKeyAndOpen(t *testing.T) {
	var copied string
	req := &fakeRequester{}
	opts := testOptions(fields.ModeEdit)
	opts.Clipboard = func(s string) error { copied = s; return nil }
	app := NewApp(req, opts)
	app = feed(t, app, tea.WindowSizeMsg{Width: 100, Height: 40})

	app = feed(t, app, keyMsg("y"))
	if copied != "PROJ-1" {
		t.Errorf("expected key copied, got %q", copied)
	}
	app = feed(t, app, keyMsg("o"))
	if len(req.opened) != 1 || req.opened[0] != "PROJ-1" {
		t.Errorf("expected open request, got %v", req.opened)
	}
	if !strings.Contains(app.View(), "Copied URL of PROJ-1") {
		t.Error("expected flash after open")
	}
}

func TestFeatureFlagEnablesRichText(t *testing.T) {
	data := editSchema()
	data.Fields = append(data.Fields, fields.Descriptor{
		Key: "description", Name: "Description", UIType: fields.UIInput, ValueType: fields.ValueString, Multiline: true, DisplayOrder: -1,
	})
	app, _ := loadedApp(t, fields.ModeEdit, data)
	app = feed(t, app, Inbound(protocol.UpdateFeatureFlags{FeatureFlags: map[string]bool{FlagRichText: true}}))

	app = feed(t, app, keyMsg("enter"))
	o, ok := app.overlay.(*textEditorOverlay)
	if !ok {
		t.Fatalf("expected text editor overlay, got %T", app.overlay)
	}
	if !strings.Contains(o.title, "rich text") {
		t.Errorf("expected rich text editor, got title %q", o.title)
	}
}
