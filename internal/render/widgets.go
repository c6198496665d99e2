package render

import (
	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/validate"
)

// Widget is the description of one rendered field. The set of variants is
// closed: only this package can add one.
type Widget interface {
	Descriptor() fields.Descriptor
	widget()
}

// Base is embedded by every widget.
type Base struct {
	Field fields.Descriptor
}

func (b Base) Descriptor() fields.Descriptor { return b.Field }
func (Base) widget()                         {}

// TextWidget is a single- or multi-line text box.
type TextWidget struct {
	Base
	Value     string
	Multiline bool
	// RichText routes multiline editing through the ADF editor instead of a
	// plain textarea.
	RichText bool
}

// Validate returns the inline validation message for s, or "".
func (w TextWidget) Validate(s string) string {
	return validate.Field(w.Field, s)
}

// SelectVariant picks how a select sources and extends its options.
type SelectVariant int

const (
	SelectPlain SelectVariant = iota
	SelectCreatable
	SelectAsync
	SelectAsyncCreatable
)

func (v SelectVariant) String() string {
	switch v {
	case SelectCreatable:
		return "creatable"
	case SelectAsync:
		return "async"
	case SelectAsyncCreatable:
		return "async-creatable"
	}
	return "plain"
}

// Async reports whether options are loaded from the autocomplete endpoint.
func (v SelectVariant) Async() bool { return v == SelectAsync || v == SelectAsyncCreatable }

// Creatable reports whether the user may create a new option.
func (v SelectVariant) Creatable() bool { return v == SelectCreatable || v == SelectAsyncCreatable }

type SelectWidget struct {
	Base
	Variant   SelectVariant
	Multi     bool
	Clearable bool
	Options   []fields.Option
	Selected  []fields.Option
}

// CheckboxWidget selects any subset of its options.
type CheckboxWidget struct {
	Base
	Options  []fields.Option
	Selected []fields.Option
}

// RadioWidget selects at most one option.
type RadioWidget struct {
	Base
	Options  []fields.Option
	Selected *fields.Option
}

// DateWidget edits a date or, with WithTime, a datetime.
type DateWidget struct {
	Base
	Value    string
	WithTime bool
	// WriteThrough dispatches on every change without a save step.
	WriteThrough bool
	Required     bool
}

func (w DateWidget) Validate(s string) string {
	if w.Required {
		if msg := validate.Required(w.Field.Name, s); msg != "" {
			return msg
		}
	}
	if s == "" {
		return ""
	}
	return validate.Date(w.Field.Name, s, w.WithTime)
}

// Layout is the time layout the widget reads and writes.
func (w DateWidget) Layout() string {
	if w.WithTime {
		return validate.DateTimeLayout
	}
	return validate.DateLayout
}

// IssueLinkWidget searches for a single related issue (the parent).
type IssueLinkWidget struct {
	Base
	JQL       string
	PickerURL string
	Default   *fields.IssueSuggestion
}

// LinkRow is one existing issue link.
type LinkRow struct {
	ID       string
	Relation string
	Key      string
	Summary  string
	Status   string
}

type IssueLinksWidget struct {
	Base
	JQL       string
	PickerURL string
	Links     []LinkRow
	LinkTypes []fields.Option
}

// TimetrackingWidget holds two free-text estimates passed to Jira verbatim.
type TimetrackingWidget struct {
	Base
	OriginalEstimate  string
	RemainingEstimate string
	TimeSpent         string
}

// ValidateEstimate checks one estimate. An empty estimate is allowed.
func (w TimetrackingWidget) ValidateEstimate(label, s string) string {
	if s == "" {
		return ""
	}
	return validate.Duration(label, s)
}

// WorklogWidget logs work while creating an issue.
type WorklogWidget struct {
	Base
	Enabled     bool
	TimeSpent   string
	NewEstimate string
	Started     string
	Comment     string
}

// Worklog sub-field keys.
const (
	WorklogTimeSpent   = "timeSpent"
	WorklogNewEstimate = "newEstimate"
	WorklogStarted     = "started"
	WorklogComment     = "comment"
)

// Validate returns the message of every failing sub-field, keyed by
// sub-field. A disabled worklog is always valid.
func (w WorklogWidget) Validate() map[string]string {
	errs := map[string]string{}
	if !w.Enabled {
		return errs
	}
	check := func(key, label, s string, extra func(string, string) string) {
		if msg := validate.Required(label, s); msg != "" {
			errs[key] = msg
			return
		}
		if extra != nil {
			if msg := extra(label, s); msg != "" {
				errs[key] = msg
			}
		}
	}
	check(WorklogTimeSpent, "Time spent", w.TimeSpent, validate.Duration)
	check(WorklogNewEstimate, "Remaining estimate", w.NewEstimate, validate.Duration)
	check(WorklogStarted, "Start time", w.Started, func(l, s string) string { return validate.Date(l, s, true) })
	check(WorklogComment, "Work description", w.Comment, nil)
	return errs
}

type AttachmentRow struct {
	Filename string
	Size     int64
	MimeType string
	Author   string
	Created  string
}

type AttachmentWidget struct {
	Base
	Items []AttachmentRow
}

type CommentRow struct {
	ID      string
	Author  string
	Created string
	Body    string
}

type CommentsWidget struct {
	Base
	Comments []CommentRow
	Total    int
}

type ParticipantsWidget struct {
	Base
	Users []fields.Option
}

type SubtaskRow struct {
	Key     string
	Summary string
	Status  string
}

type SubtasksWidget struct {
	Base
	Items []SubtaskRow
}

// DisplayFormat is the presentation of a read-only value.
type DisplayFormat string

const (
	FormatText         DisplayFormat = "text"
	FormatRelativeDate DisplayFormat = "relativeDate"
	FormatIcon         DisplayFormat = "icon"
	FormatLozenge      DisplayFormat = "lozenge"
	FormatAvatar       DisplayFormat = "avatar"
)

// ReadOnlyWidget shows a value that cannot be edited.
type ReadOnlyWidget struct {
	Base
	Format  DisplayFormat
	Text    string
	IconURL string
	// Color is the Jira status category color name for lozenges.
	Color string
}

// HiddenWidget is a field that renders nothing in the current context.
type HiddenWidget struct {
	Base
	Reason string
}

// UnknownWidget flags a uiType this renderer does not know, in edit mode.
type UnknownWidget struct {
	Base
	Warning string
	Raw     string
}
