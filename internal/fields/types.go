// Package fields holds the server-supplied field schema of an issue: which
// widget family renders each field, what kind of value it holds, and the
// current values keyed by field.
package fields

// UIType is the widget family used to render a field.
type UIType string

const (
	UIInput        UIType = "input"
	UISelect       UIType = "select"
	UIDate         UIType = "date"
	UIDateTime     UIType = "datetime"
	UICheckbox     UIType = "checkbox"
	UIRadio        UIType = "radio"
	UIIssueLink    UIType = "issuelink"
	UIIssueLinks   UIType = "issuelinks"
	UITimetracking UIType = "timetracking"
	UIWorklog      UIType = "worklog"
	UIAttachment   UIType = "attachment"
	UIComments     UIType = "comments"
	UIParticipants UIType = "participants"
	UISubtasks     UIType = "subtasks"
	UINonEditable  UIType = "noneditable"
)

// ValueType is the semantic type of a field's value, independent of the widget.
type ValueType string

const (
	ValueString       ValueType = "string"
	ValueNumber       ValueType = "number"
	ValueURL          ValueType = "url"
	ValueUser         ValueType = "user"
	ValueGroup        ValueType = "group"
	ValueProject      ValueType = "project"
	ValueOption       ValueType = "option"
	ValueDate         ValueType = "date"
	ValueDateTime     ValueType = "datetime"
	ValueIssueType    ValueType = "issuetype"
	ValuePriority     ValueType = "priority"
	ValueStatus       ValueType = "status"
	ValueTransition   ValueType = "transition"
	ValueComponent    ValueType = "component"
	ValueVersion      ValueType = "version"
	ValueAttachment   ValueType = "attachment"
	ValueWorklog      ValueType = "worklog"
	ValueIssueLinks   ValueType = "issuelinks"
	ValueCommentsPage ValueType = "commentsPage"
	ValueTimetracking ValueType = "timetracking"
)

// Descriptor is one schema entry. Key is stable for the lifetime of an edit
// session; DisplayOrder defines the render order.
type Descriptor struct {
	Key             string    `json:"key"`
	Name            string    `json:"name"`
	UIType          UIType    `json:"uiType"`
	ValueType       ValueType `json:"valueType"`
	Required        bool      `json:"required"`
	IsArray         bool      `json:"isArray"`
	IsMulti         bool      `json:"isMulti"`
	Multiline       bool      `json:"multiline,omitempty"`
	AllowedValues   []Option  `json:"allowedValues,omitempty"`
	AutoCompleteURL string    `json:"autoCompleteUrl,omitempty"`
	CreateURL       string    `json:"createUrl,omitempty"`
	DisplayOrder    int       `json:"displayOrder"`
}

// Option is a normalised allowed value. Jira returns options with either a
// "value" (custom field options) or a "name" (priorities, components,
// versions, users); Raw keeps the original object for dispatch.
type Option struct {
	ID      string         `json:"id,omitempty"`
	Value   string         `json:"value,omitempty"`
	Name    string         `json:"name,omitempty"`
	IconURL string         `json:"iconUrl,omitempty"`
	Raw     map[string]any `json:"-"`
}

// Label returns the text a widget shows for the option.
func (o Option) Label() string {
	switch {
	case o.Value != "":
		return o.Value
	case o.Name != "":
		return o.Name
	default:
		return o.ID
	}
}

// Equal reports whether two options refer to the same server entity.
func (o Option) Equal(other Option) bool {
	if o.ID != "" || other.ID != "" {
		return o.ID == other.ID
	}
	return o.Label() == other.Label()
}

// IssueSuggestion is the shape the issue search widget expects for both
// search results and the pre-populated parent value.
type IssueSuggestion struct {
	Img         string `json:"img"`
	Key         string `json:"key"`
	KeyHTML     string `json:"keyHtml"`
	Summary     string `json:"summary"`
	SummaryText string `json:"summaryText"`
}

// Mode selects between the create-issue and edit-issue form behaviour.
type Mode int

const (
	ModeEdit Mode = iota
	ModeCreate
)

func (m Mode) String() string {
	if m == ModeCreate {
		return "create"
	}
	return "edit"
}
