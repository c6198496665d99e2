// Package dispatch owns the edit session state of one issue form and the
// rules that turn widget changes into outbound edits.
//
// All state changes go through Reduce, which never mutates its input: the
// caller keeps the returned snapshot. The tui package calls it only from the
// bubbletea Update loop, making that loop the single writer.
package dispatch

import (
	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

// ErrorBanner is the single shared error display. The latest error wins.
type ErrorBanner struct {
	Open   bool
	Reason string
}

// PendingCreateOption tracks one in-flight "create option" round trip.
type PendingCreateOption struct {
	FieldKey  string
	InputText string
	Nonce     string
}

// Session is an immutable snapshot of the editor state.
type Session struct {
	Mode        fields.Mode
	IssueKey    string
	IssueType   string
	IssueTypeID string
	ProjectKey  string
	Site        protocol.Site
	Loaded      bool

	Fields []fields.Descriptor
	Values fields.ValueMap

	IsLoading    bool
	LoadingField string
	EditingField string
	Error        ErrorBanner

	FeatureFlags  map[string]bool
	ShowPMF       bool
	Settings      map[string]any
	PendingCreate *PendingCreateOption
	CreatedKey    string
}

// NewSession returns an empty session in the given mode.
func NewSession(mode fields.Mode) Session {
	return Session{Mode: mode, Values: fields.ValueMap{}}
}

// Field returns the descriptor for key.
func (s Session) Field(key string) (fields.Descriptor, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return fields.Descriptor{}, false
}

// Flag reports a feature flag, false when unset.
func (s Session) Flag(name string) bool {
	return s.FeatureFlags[name]
}

// Action is an event applied to a Session by Reduce.
type Action interface {
	action()
}

type (
	SchemaLoaded struct{ Data protocol.EditIssueData }
	// BeginEdit puts one field in inline-edit mode, replacing any other.
	BeginEdit  struct{ FieldKey string }
	CancelEdit struct{}
	// LocalEdit applies a user edit optimistically.
	LocalEdit struct {
		FieldKey string
		Value    any
	}
	// DispatchStarted marks an edit as sent; its field takes the loading slot.
	DispatchStarted struct{ FieldKey string }
	// EditAcknowledged carries confirmed values from the server.
	EditAcknowledged struct {
		FieldKey    string
		FieldValues map[string]any
	}
	// ServerError carries a failure and the server's values for the fields involved.
	ServerError struct {
		Reason      string
		FieldValues map[string]any
	}
	LoadingStarted      struct{ FieldKey string }
	LoadingEnded        struct{ FieldKey string }
	FeatureFlagsUpdated struct{ Flags map[string]bool }
	PMFStatusChanged    struct{ Show bool }
	SettingsUpdated     struct{ Settings map[string]any }
	CreateOptionRequested struct {
		FieldKey  string
		InputText string
		Nonce     string
	}
	OptionCreated struct {
		FieldKey    string
		FieldValues map[string]any
		Options     []fields.Option
	}
	CreateOptionFailed struct{ Reason string }
	DismissError       struct{}
	IssueCreated       struct{ Key string }
)

func (SchemaLoaded) action()          {}
func (BeginEdit) action()             {}
func (CancelEdit) action()            {}
func (LocalEdit) action()             {}
func (DispatchStarted) action()       {}
func (EditAcknowledged) action()      {}
func (ServerError) action()           {}
func (LoadingStarted) action()        {}
func (LoadingEnded) action()          {}
func (FeatureFlagsUpdated) action()   {}
func (PMFStatusChanged) action()      {}
func (SettingsUpdated) action()       {}
func (CreateOptionRequested) action() {}
func (OptionCreated) action()         {}
func (CreateOptionFailed) action()    {}
func (DismissError) action()          {}
func (IssueCreated) action()          {}

// Reduce applies a to s and returns the new snapshot.
func Reduce(s Session, a Action) Session {
	switch a := a.(type) {
	case SchemaLoaded:
		d := a.Data
		s.Mode = d.Mode
		s.IssueKey = d.IssueKey
		s.IssueType = d.IssueType
		s.IssueTypeID = d.IssueTypeID
		s.ProjectKey = d.ProjectKey
		s.Site = d.Site
		s.Fields = fields.SortFieldValues(d.Fields)
		s.Values = fields.ValueMap(d.FieldValues).Clone()
		s.Loaded = true
		s.EditingField = ""
		s.clearLoading()

	case BeginEdit:
		f, ok := s.Field(a.FieldKey)
		if !ok || f.UIType == fields.UINonEditable {
			return s
		}
		s.EditingField = a.FieldKey

	case CancelEdit:
		s.EditingField = ""

	case LocalEdit:
		s.Values = s.Values.Merge(map[string]any{a.FieldKey: a.Value})
		if s.EditingField == a.FieldKey {
			s.EditingField = ""
		}

	case DispatchStarted:
		s.IsLoading = true
		s.LoadingField = a.FieldKey

	case EditAcknowledged:
		s.Values = s.Values.Merge(a.FieldValues)
		if a.FieldKey == "" || a.FieldKey == s.LoadingField {
			s.clearLoading()
		}

	case ServerError:
		s.clearLoading()
		s.Error = ErrorBanner{Open: true, Reason: a.Reason}
		if len(a.FieldValues) > 0 {
			s.Values = s.Values.Merge(a.FieldValues)
		}

	case LoadingStarted:
		s.IsLoading = true
		if a.FieldKey != "" {
			s.LoadingField = a.FieldKey
		}

	case LoadingEnded:
		if a.FieldKey == "" || a.FieldKey == s.LoadingField {
			s.clearLoading()
		}

	case FeatureFlagsUpdated:
		flags := make(map[string]bool, len(s.FeatureFlags)+len(a.Flags))
		for k, v := range s.FeatureFlags {
			flags[k] = v
		}
		for k, v := range a.Flags {
			flags[k] = v
		}
		s.FeatureFlags = flags

	case PMFStatusChanged:
		s.ShowPMF = a.Show

	case SettingsUpdated:
		s.Settings = a.Settings

	case CreateOptionRequested:
		s.PendingCreate = &PendingCreateOption{FieldKey: a.FieldKey, InputText: a.InputText, Nonce: a.Nonce}
		s.IsLoading = true
		s.LoadingField = a.FieldKey

	case OptionCreated:
		s = s.applyOptionCreated(a)

	case CreateOptionFailed:
		s.PendingCreate = nil
		s.clearLoading()
		s.Error = ErrorBanner{Open: true, Reason: a.Reason}

	case DismissError:
		s.Error = ErrorBanner{}

	case IssueCreated:
		s.CreatedKey = a.Key
		s.clearLoading()
	}
	return s
}

func (s *Session) clearLoading() {
	s.IsLoading = false
	s.LoadingField = ""
}

func (s Session) applyOptionCreated(a OptionCreated) Session {
	if s.PendingCreate != nil && s.PendingCreate.FieldKey == a.FieldKey {
		s.PendingCreate = nil
	}
	if a.FieldKey == s.LoadingField {
		s.clearLoading()
	}

	idx := -1
	for i, f := range s.Fields {
		if f.Key == a.FieldKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}

	fs := make([]fields.Descriptor, len(s.Fields))
	copy(fs, s.Fields)
	f := fs[idx]
	allowed := make([]fields.Option, len(f.AllowedValues), len(f.AllowedValues)+len(a.Options))
	copy(allowed, f.AllowedValues)
	for _, o := range a.Options {
		if !containsOption(allowed, o) {
			allowed = append(allowed, o)
		}
	}
	f.AllowedValues = allowed
	fs[idx] = f
	s.Fields = fs

	created, ok := a.FieldValues[a.FieldKey]
	if !ok {
		return s
	}
	if f.IsMulti {
		s.Values = s.Values.Merge(map[string]any{a.FieldKey: appendValue(s.Values[a.FieldKey], created)})
	} else {
		s.Values = s.Values.Merge(map[string]any{a.FieldKey: created})
	}
	return s
}

func containsOption(list []fields.Option, o fields.Option) bool {
	for _, x := range list {
		if x.Equal(o) {
			return true
		}
	}
	return false
}

func appendValue(current, v any) []any {
	var out []any
	switch cur := current.(type) {
	case nil:
	case []any:
		out = append(out, cur...)
	case []fields.Option:
		for _, o := range cur {
			out = append(out, o)
		}
	case []map[string]any:
		for _, m := range cur {
			out = append(out, m)
		}
	case []string:
		for _, s := range cur {
			out = append(out, s)
		}
	default:
		out = append(out, cur)
	}
	return append(out, v)
}

// FromMessage converts an unsolicited host message into an Action.
func FromMessage(m protocol.Message) (Action, bool) {
	switch m := m.(type) {
	case protocol.EditIssueData:
		return SchemaLoaded{Data: m}, true
	case protocol.Error:
		return ServerError{Reason: m.Reason, FieldValues: m.FieldValues}, true
	case protocol.FieldValueUpdate:
		return EditAcknowledged{FieldKey: m.FieldKey, FieldValues: m.FieldValues}, true
	case protocol.PMFStatus:
		return PMFStatusChanged{Show: m.ShowPMF}, true
	case protocol.UpdateFeatureFlags:
		return FeatureFlagsUpdated{Flags: m.FeatureFlags}, true
	case protocol.LoadingStart:
		return LoadingStarted{FieldKey: m.FieldKey}, true
	case protocol.LoadingEnd:
		return LoadingEnded{FieldKey: m.FieldKey}, true
	case protocol.AdditionalSettings:
		return SettingsUpdated{Settings: m.Settings}, true
	case protocol.IssueCreated:
		return IssueCreated{Key: m.Key}, true
	case protocol.OptionCreated:
		var opts []fields.Option
		for _, raw := range m.SelectFieldOptions[m.FieldKey] {
			opts = append(opts, fields.OptionFromMap(raw))
		}
		return OptionCreated{FieldKey: m.FieldKey, FieldValues: m.FieldValues, Options: opts}, true
	}
	return nil, false
}
