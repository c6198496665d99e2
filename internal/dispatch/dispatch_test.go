package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
	"github.com/jbeckham/jira-issue-editor/internal/render"
)

func loadedSession() Session {
	return Reduce(NewSession(fields.ModeEdit), SchemaLoaded{Data: protocol.EditIssueData{
		Mode:     fields.ModeEdit,
		IssueKey: "PROJ-1",
		Fields: []fields.Descriptor{
			{Key: "description", Name: "Description", UIType: fields.UIInput, ValueType: fields.ValueString, DisplayOrder: 2},
			{Key: "summary", Name: "Summary", UIType: fields.UIInput, ValueType: fields.ValueString, Required: true, DisplayOrder: 1},
			{Key: "components", Name: "Components", UIType: fields.UISelect, ValueType: fields.ValueComponent, IsArray: true, IsMulti: true,
				AllowedValues: []fields.Option{{ID: "1", Name: "API"}}, CreateURL: "/rest/api/3/component", DisplayOrder: 3},
			{Key: "status", Name: "Status", UIType: fields.UINonEditable, ValueType: fields.ValueStatus, DisplayOrder: 4},
		},
		FieldValues: map[string]any{"summary": "original", "description": "body"},
	}})
}

func TestSchemaLoadedSortsFields(t *testing.T) {
	s := loadedSession()
	require.True(t, s.Loaded)
	assert.Equal(t, "summary", s.Fields[0].Key)
	assert.Equal(t, "PROJ-1", s.IssueKey)
}

func TestServerErrorMergesFieldValues(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, LocalEdit{FieldKey: "summary", Value: "optimistic"})
	s = Reduce(s, DispatchStarted{FieldKey: "summary"})
	require.True(t, s.IsLoading)

	before := s
	s = Reduce(s, ServerError{Reason: "Summary is too long", FieldValues: map[string]any{"summary": "reverted"}})

	assert.Equal(t, "reverted", s.Values["summary"])
	assert.Equal(t, "body", s.Values["description"])
	assert.True(t, s.Error.Open)
	assert.Equal(t, "Summary is too long", s.Error.Reason)
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.LoadingField)

	assert.Equal(t, "optimistic", before.Values["summary"], "previous snapshot must be untouched")
	assert.True(t, before.IsLoading)
}

func TestServerErrorLatestWins(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, ServerError{Reason: "first"})
	s = Reduce(s, ServerError{Reason: "second"})
	assert.Equal(t, "second", s.Error.Reason)

	s = Reduce(s, DismissError{})
	assert.False(t, s.Error.Open)
}

func TestAcknowledgeReplacesOptimisticValue(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, LocalEdit{FieldKey: "summary", Value: "draft"})
	s = Reduce(s, DispatchStarted{FieldKey: "summary"})
	s = Reduce(s, EditAcknowledged{FieldKey: "summary", FieldValues: map[string]any{"summary": "Draft"}})
	assert.Equal(t, "Draft", s.Values["summary"])
	assert.False(t, s.IsLoading)
}

func TestLoadingSlotLastStartedWins(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, DispatchStarted{FieldKey: "summary"})
	s = Reduce(s, DispatchStarted{FieldKey: "description"})
	assert.Equal(t, "description", s.LoadingField)

	// the older edit resolving does not steal the indicator
	s = Reduce(s, EditAcknowledged{FieldKey: "summary", FieldValues: map[string]any{"summary": "x"}})
	assert.True(t, s.IsLoading)
	assert.Equal(t, "description", s.LoadingField)
	assert.Equal(t, "x", s.Values["summary"])

	s = Reduce(s, EditAcknowledged{FieldKey: "description", FieldValues: map[string]any{"description": "y"}})
	assert.False(t, s.IsLoading)
}

func TestLoadingPushes(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, LoadingStarted{})
	assert.True(t, s.IsLoading)
	assert.Empty(t, s.LoadingField)
	s = Reduce(s, LoadingEnded{})
	assert.False(t, s.IsLoading)

	s = Reduce(s, LoadingStarted{FieldKey: "summary"})
	s = Reduce(s, LoadingEnded{FieldKey: "description"})
	assert.True(t, s.IsLoading)
}

func TestBeginEditSingleField(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, BeginEdit{FieldKey: "summary"})
	assert.Equal(t, "summary", s.EditingField)
	s = Reduce(s, BeginEdit{FieldKey: "description"})
	assert.Equal(t, "description", s.EditingField)

	s = Reduce(s, BeginEdit{FieldKey: "status"})
	assert.Equal(t, "description", s.EditingField, "read-only fields never enter edit")
	s = Reduce(s, BeginEdit{FieldKey: "nope"})
	assert.Equal(t, "description", s.EditingField)

	s = Reduce(s, CancelEdit{})
	assert.Empty(t, s.EditingField)
}

func TestCreateOptionFlow(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, LocalEdit{FieldKey: "components", Value: []any{map[string]any{"id": "1", "name": "API"}}})
	s = Reduce(s, CreateOptionRequested{FieldKey: "components", InputText: "Backend", Nonce: "n1"})
	require.NotNil(t, s.PendingCreate)
	assert.Equal(t, "Backend", s.PendingCreate.InputText)
	assert.Equal(t, "components", s.LoadingField)

	created := map[string]any{"id": "2", "name": "Backend"}
	action, ok := FromMessage(protocol.OptionCreated{
		FieldKey:           "components",
		FieldValues:        map[string]any{"components": created},
		SelectFieldOptions: map[string][]map[string]any{"components": {created}},
		Nonce:              "n1",
	})
	require.True(t, ok)
	before := s
	s = Reduce(s, action)

	assert.Nil(t, s.PendingCreate)
	assert.False(t, s.IsLoading)
	f, _ := s.Field("components")
	require.Len(t, f.AllowedValues, 2)
	assert.Equal(t, "Backend", f.AllowedValues[1].Label())
	assert.Equal(t, []any{map[string]any{"id": "1", "name": "API"}, created}, s.Values["components"])

	old, _ := before.Field("components")
	assert.Len(t, old.AllowedValues, 1, "previous snapshot's descriptor must be untouched")
}

func TestCreateOptionFailedDoesNotMutate(t *testing.T) {
	s := loadedSession()
	s = Reduce(s, CreateOptionRequested{FieldKey: "components", InputText: "Backend", Nonce: "n1"})
	s = Reduce(s, CreateOptionFailed{Reason: "Component already exists"})

	assert.Nil(t, s.PendingCreate)
	assert.True(t, s.Error.Open)
	f, _ := s.Field("components")
	assert.Len(t, f.AllowedValues, 1)
	assert.Nil(t, s.Values["components"])
}

func TestFeatureFlagsMerge(t *testing.T) {
	s := NewSession(fields.ModeCreate)
	s = Reduce(s, FeatureFlagsUpdated{Flags: map[string]bool{"richText": true}})
	s = Reduce(s, FeatureFlagsUpdated{Flags: map[string]bool{"pmf": false}})
	assert.True(t, s.Flag("richText"))
	assert.False(t, s.Flag("pmf"))
	assert.False(t, s.Flag("missing"))
}

func TestFromMessage(t *testing.T) {
	tests := []struct {
		msg  protocol.Message
		want Action
	}{
		{protocol.Error{Reason: "x"}, ServerError{Reason: "x"}},
		{protocol.FieldValueUpdate{FieldKey: "a", FieldValues: map[string]any{"a": 1}}, EditAcknowledged{FieldKey: "a", FieldValues: map[string]any{"a": 1}}},
		{protocol.PMFStatus{ShowPMF: true}, PMFStatusChanged{Show: true}},
		{protocol.LoadingStart{FieldKey: "a"}, LoadingStarted{FieldKey: "a"}},
		{protocol.LoadingEnd{}, LoadingEnded{}},
		{protocol.AdditionalSettings{Settings: map[string]any{"k": "v"}}, SettingsUpdated{Settings: map[string]any{"k": "v"}}},
		{protocol.IssueCreated{Key: "P-9"}, IssueCreated{Key: "P-9"}},
	}
	for _, tt := range tests {
		t.Run(tt.msg.MessageType(), func(t *testing.T) {
			got, ok := FromMessage(tt.msg)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := FromMessage(protocol.FetchIssues{})
	assert.False(t, ok)
}

func TestDebounceTwoRapidEventsDispatchOnce(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, DefaultDebounce, d.Window)

	first := d.Schedule("priority", "High")
	second := d.Schedule("priority", "Low")

	var dispatched []any
	for _, seq := range []uint64{first, second} {
		if v, ok := d.Fire("priority", seq); ok {
			dispatched = append(dispatched, v)
		}
	}
	assert.Equal(t, []any{"Low"}, dispatched)
	assert.False(t, d.Pending("priority"))

	_, ok := d.Fire("priority", second)
	assert.False(t, ok, "a fired value is consumed")
}

func TestDebouncePerField(t *testing.T) {
	d := NewDebouncer(DefaultDebounce)
	a := d.Schedule("assignee", "ada")
	b := d.Schedule("labels", []string{"x"})

	v, ok := d.Fire("assignee", a)
	require.True(t, ok)
	assert.Equal(t, "ada", v)
	_, ok = d.Fire("labels", b)
	assert.True(t, ok)

	c := d.Schedule("assignee", "bob")
	d.Cancel("assignee")
	_, ok = d.Fire("assignee", c)
	assert.False(t, ok)

	e := d.Schedule("labels", []string{"y"})
	require.True(t, d.Pending("labels"))
	v, ok = d.Take("labels")
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, v)
	assert.False(t, d.Pending("labels"))
	_, ok = d.Fire("labels", e)
	assert.False(t, ok, "a taken value must not fire again")
}

func TestFormatEditValue(t *testing.T) {
	str := fields.Descriptor{Key: "customfield_1", ValueType: fields.ValueString}
	assert.Equal(t, "X", FormatEditValue(str, map[string]any{"value": "X"}))
	assert.Equal(t, []any{"A", "B"}, FormatEditValue(str, []any{map[string]any{"value": "A"}, map[string]any{"value": "B"}}))
	assert.Equal(t, "plain", FormatEditValue(str, "plain"))
	assert.Nil(t, FormatEditValue(str, nil))

	labels := fields.Descriptor{Key: "labels", ValueType: fields.ValueString, IsArray: true}
	assert.Equal(t, []any{"backend", "urgent"}, FormatEditValue(labels, []fields.Option{{Value: "backend"}, {Value: "urgent"}}))

	group := fields.Descriptor{Key: "customfield_2", ValueType: fields.ValueGroup}
	assert.Equal(t, map[string]any{"name": "devs"}, FormatEditValue(group, map[string]any{"value": "devs"}))

	user := fields.Descriptor{Key: "assignee", ValueType: fields.ValueUser}
	assert.Equal(t, map[string]any{"accountId": "a1"}, FormatEditValue(user, fields.Option{ID: "a1", Name: "Ada"}))
	assert.Nil(t, FormatEditValue(user, []fields.Option{}))

	comps := fields.Descriptor{Key: "components", ValueType: fields.ValueComponent, IsArray: true}
	assert.Equal(t, []any{map[string]any{"id": "1"}, map[string]any{"name": "New"}},
		FormatEditValue(comps, []fields.Option{{ID: "1", Name: "API"}, {Name: "New"}}))

	// a stored server list with one newly appended option
	mixed := []any{map[string]any{"id": "10500", "name": "Backend", "self": "https://x/component/10500"}, fields.Option{ID: "1", Name: "API"}}
	assert.Equal(t, []any{map[string]any{"id": "10500"}, map[string]any{"id": "1"}}, FormatEditValue(comps, mixed))
	watchers := fields.Descriptor{Key: "customfield_4", ValueType: fields.ValueUser, IsArray: true}
	assert.Equal(t, []any{map[string]any{"accountId": "a1"}, map[string]any{"accountId": "b2"}},
		FormatEditValue(watchers, []map[string]any{{"accountId": "a1", "displayName": "Ada"}, {"accountId": "b2"}}))

	opt := fields.Descriptor{Key: "customfield_3", ValueType: fields.ValueOption}
	assert.Equal(t, map[string]any{"value": "Red"}, FormatEditValue(opt, fields.Option{Value: "Red"}))

	parent := fields.Descriptor{Key: "parent", UIType: fields.UIIssueLink, ValueType: fields.ValueString}
	assert.Equal(t, map[string]any{"key": "PROJ-9"}, FormatEditValue(parent, fields.IssueSuggestion{Key: "PROJ-9"}))
	assert.Equal(t, map[string]any{"key": "PROJ-9"}, FormatEditValue(parent, map[string]any{"key": "PROJ-9", "fields": map[string]any{}}))
	assert.Nil(t, FormatEditValue(parent, ""))
}

func TestCoerceInput(t *testing.T) {
	num := fields.Descriptor{ValueType: fields.ValueNumber}
	assert.Equal(t, 5.5, CoerceInput(num, " 5.5 "))
	assert.Nil(t, CoerceInput(num, ""))
	assert.Equal(t, "text", CoerceInput(fields.Descriptor{ValueType: fields.ValueString}, "text"))
}

func TestValidateForDispatchBlocksRequired(t *testing.T) {
	f := fields.Descriptor{Name: "Summary", UIType: fields.UIInput, ValueType: fields.ValueString, Required: true}
	text := render.TextWidget{Base: render.Base{Field: f}}
	assert.Equal(t, "Summary is required", ValidateForDispatch(text, ""))
	assert.Empty(t, ValidateForDispatch(text, "ok"))
	assert.Equal(t, "Summary is required", ValidateSelection(f, nil))

	due := render.DateWidget{Base: render.Base{Field: fields.Descriptor{Name: "Due date", UIType: fields.UIDate, ValueType: fields.ValueDate}}}
	assert.Empty(t, ValidateForDispatch(due, ""))
	assert.NotEmpty(t, ValidateForDispatch(due, "07/01/2025"))
	assert.Empty(t, ValidateForDispatch(due, "2025-07-01"))
}

func TestEditMessage(t *testing.T) {
	f := fields.Descriptor{Key: "customfield_1", ValueType: fields.ValueString}
	msg := EditMessage("PROJ-1", f, map[string]any{"value": "X"})
	assert.Equal(t, protocol.EditIssue{IssueKey: "PROJ-1", FieldKey: "customfield_1", FieldValues: map[string]any{"customfield_1": "X"}}, msg)
}

func TestCreatePayloadAndMissing(t *testing.T) {
	fs := []fields.Descriptor{
		{Key: "summary", Name: "Summary", UIType: fields.UIInput, ValueType: fields.ValueString, Required: true},
		{Key: "priority", Name: "Priority", UIType: fields.UISelect, ValueType: fields.ValuePriority, Required: true},
		{Key: "worklog", Name: "Log work", UIType: fields.UIWorklog},
	}
	values := fields.ValueMap{"summary": "New bug", "worklog": map[string]any{"enabled": true}}

	assert.Equal(t, []string{"Priority"}, MissingRequired(fs, values))

	values["priority"] = fields.Option{ID: "3", Name: "Medium"}
	assert.Empty(t, MissingRequired(fs, values))
	assert.Equal(t, map[string]any{
		"summary":  "New bug",
		"priority": map[string]any{"id": "3"},
	}, CreatePayload(fs, values))
}
