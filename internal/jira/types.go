package jira

import "encoding/json"

// User represents a Jira user.
type User struct {
	AccountID   string            `json:"accountId"`
	DisplayName string            `json:"displayName"`
	Email       string            `json:"emailAddress,omitempty"`
	Active      bool              `json:"active"`
	AvatarURLs  map[string]string `json:"avatarUrls,omitempty"`
}

// Issue represents a Jira issue. Fields holds the typed subset the editor
// reads directly; Raw keeps every field as returned by the server so that
// dynamically-typed custom fields survive the round trip.
type Issue struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Self   string         `json:"self"`
	Fields IssueFields    `json:"fields"`
	Raw    map[string]any `json:"-"`
}

// UnmarshalJSON decodes the issue and keeps a raw copy of its fields.
func (i *Issue) UnmarshalJSON(data []byte) error {
	type plain Issue
	var aux struct {
		plain
		RawFields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Issue(aux.plain)
	if err := remarshal(aux.RawFields, &i.Fields); err != nil {
		return err
	}
	i.Raw = aux.RawFields
	return nil
}

func remarshal(src any, dst any) error {
	if src == nil {
		return nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary     string      `json:"summary"`
	Description any         `json:"description"`
	Status      *Status     `json:"status"`
	Assignee    *User       `json:"assignee"`
	Reporter    *User       `json:"reporter"`
	Priority    *Named      `json:"priority"`
	IssueType   *IssueType  `json:"issuetype"`
	Project     *Project    `json:"project"`
	Parent      *IssueRef   `json:"parent"`
	Labels      []string    `json:"labels"`
	Subtasks    []IssueRef  `json:"subtasks"`
	IssueLinks  []IssueLink `json:"issuelinks"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`
}

// IssueRef is the abbreviated issue embedded in parent, subtask and link fields.
type IssueRef struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields *IssueRefFields `json:"fields,omitempty"`
}

// IssueRefFields are the few fields Jira embeds in an IssueRef.
type IssueRefFields struct {
	Summary   string     `json:"summary"`
	Status    *Status    `json:"status,omitempty"`
	IssueType *IssueType `json:"issuetype,omitempty"`
}

// IssueLink is one entry of the issuelinks field.
type IssueLink struct {
	ID           string        `json:"id"`
	Type         IssueLinkType `json:"type"`
	InwardIssue  *IssueRef     `json:"inwardIssue,omitempty"`
	OutwardIssue *IssueRef     `json:"outwardIssue,omitempty"`
}

// IssueLinkType names both directions of a link.
type IssueLinkType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// Project is a minimal Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Status represents a Jira status.
type Status struct {
	Name           string          `json:"name"`
	ID             string          `json:"id"`
	StatusCategory *StatusCategory `json:"statusCategory"`
}

// StatusCategory represents a Jira status category.
type StatusCategory struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Named is a generic type for Jira entities that have an ID and Name.
type Named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transition is a workflow transition available on an issue.
type Transition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	To   *Status `json:"to"`
}

// TransitionsResponse wraps GET /issue/{key}/transitions.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// Comment is a single issue comment.
type Comment struct {
	ID      string `json:"id"`
	Author  *User  `json:"author"`
	Body    any    `json:"body"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

// CommentsResponse wraps the paged comment list.
type CommentsResponse struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

// CreateIssueRequest is the body of POST /issue.
type CreateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

// CreateIssueResponse is returned by POST /issue.
type CreateIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// FieldSchema is the schema block of a field's create/edit metadata.
type FieldSchema struct {
	Type     string `json:"type"`
	Items    string `json:"items,omitempty"`
	System   string `json:"system,omitempty"`
	Custom   string `json:"custom,omitempty"`
	CustomID int    `json:"customId,omitempty"`
}

// FieldMeta describes one field of an issue's create or edit metadata.
type FieldMeta struct {
	FieldID         string           `json:"fieldId,omitempty"`
	Key             string           `json:"key,omitempty"`
	Name            string           `json:"name"`
	Required        bool             `json:"required"`
	Schema          FieldSchema      `json:"schema"`
	HasDefaultValue bool             `json:"hasDefaultValue"`
	Operations      []string         `json:"operations,omitempty"`
	AllowedValues   []map[string]any `json:"allowedValues,omitempty"`
	AutoCompleteURL string           `json:"autoCompleteUrl,omitempty"`
	DefaultValue    any              `json:"defaultValue,omitempty"`
}

// EditMeta is the response of GET /issue/{key}/editmeta.
type EditMeta struct {
	Fields map[string]FieldMeta `json:"fields"`
}

// CreateMetaFields is one page of GET /issue/createmeta/{project}/issuetypes/{id}.
type CreateMetaFields struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Fields     []FieldMeta `json:"fields"`
}

// IssueType represents a Jira issue type for a specific project.
type IssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subtask     bool   `json:"subtask"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

// IssueTypesPage is a page of GET /issue/createmeta/{project}/issuetypes.
type IssueTypesPage struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	IssueTypes []IssueType `json:"issueTypes"`
}

// PickerIssue is an issue suggestion from the issue picker endpoint.
type PickerIssue struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	KeyHTML     string `json:"keyHtml"`
	Img         string `json:"img"`
	Summary     string `json:"summary"`
	SummaryText string `json:"summaryText"`
}

// PickerSection groups picker suggestions (history, current search).
type PickerSection struct {
	ID     string        `json:"id"`
	Label  string        `json:"label"`
	Issues []PickerIssue `json:"issues"`
}

// PickerResponse wraps GET /issue/picker.
type PickerResponse struct {
	Sections []PickerSection `json:"sections"`
}

// Worklog is the body of POST /issue/{key}/worklog.
type Worklog struct {
	TimeSpent string `json:"timeSpent"`
	Started   string `json:"started,omitempty"`
	Comment   any    `json:"comment,omitempty"`
}
