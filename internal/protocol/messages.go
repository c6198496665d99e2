// Package protocol defines the messages exchanged between the issue editor
// and the host that talks to Jira, plus the nonce-correlated requester the
// editor uses for fetch-style calls.
package protocol

import "github.com/jbeckham/jira-issue-editor/internal/fields"

// Message type tags, as they appear in the "type" field on the wire.
const (
	TypeFetchIssues        = "fetchIssues"
	TypeFetchSelectOptions = "fetchSelectOptions"
	TypeCreateOption       = "createOption"
	TypeOpenJiraIssue      = "openJiraIssue"
	TypeEditIssue          = "editIssue"
	TypeCreateIssue        = "createIssue"
	TypeAddComment         = "addComment"
	TypeRefreshIssue       = "refreshIssue"

	TypeIssueSuggestionsList = "issueSuggestionsList"
	TypeSelectOptionsList    = "selectOptionsList"
	TypeOptionCreated        = "optionCreated"

	TypeError              = "error"
	TypeFieldValueUpdate   = "fieldValueUpdate"
	TypePMFStatus          = "pmfStatus"
	TypeUpdateFeatureFlags = "updateFeatureFlags"
	TypeLoadingStart       = "loadingStart"
	TypeLoadingEnd         = "loadingEnd"
	TypeAdditionalSettings = "additionalSettings"
	TypeIssueCreated       = "issueCreated"
	TypeEditIssueData      = "editIssueData"
)

// Message is anything that travels over the channel.
type Message interface {
	MessageType() string
}

// Correlated is a message carrying a nonce that pairs a request with its reply.
type Correlated interface {
	Message
	CorrelationID() string
}

// Site identifies the Jira instance a request targets.
type Site struct {
	BaseURL string `json:"baseUrl"`
	Name    string `json:"name,omitempty"`
}

// Requests (editor to host).

type FetchIssues struct {
	Query           string `json:"query"`
	Site            Site   `json:"site"`
	AutoCompleteURL string `json:"autocompleteUrl"`
	Nonce           string `json:"nonce"`
}

type FetchSelectOptions struct {
	Query           string `json:"query"`
	Site            Site   `json:"site"`
	AutoCompleteURL string `json:"autocompleteUrl"`
	FieldName       string `json:"fieldName"`
	FieldKey        string `json:"fieldKey"`
	Nonce           string `json:"nonce"`
}

type CreateOption struct {
	FieldKey    string         `json:"fieldKey"`
	SiteDetails Site           `json:"siteDetails"`
	CreateURL   string         `json:"createUrl"`
	CreateData  map[string]any `json:"createData"`
	Nonce       string         `json:"nonce"`
}

// OpenJiraIssue is fire-and-forget; no reply is awaited.
type OpenJiraIssue struct {
	IssueOrKey string `json:"issueOrKey"`
	Nonce      string `json:"nonce,omitempty"`
}

// EditIssue asks the host to persist one or more field values. The outcome
// arrives as a FieldValueUpdate or Error push.
type EditIssue struct {
	IssueKey    string         `json:"issueKey"`
	FieldKey    string         `json:"fieldKey"`
	FieldValues map[string]any `json:"fieldValues"`
}

type CreateIssue struct {
	ProjectKey  string         `json:"projectKey"`
	IssueTypeID string         `json:"issueTypeId"`
	FieldValues map[string]any `json:"fieldValues"`
	Worklog     *Worklog       `json:"worklog,omitempty"`
}

// Worklog is work logged right after an issue is created.
type Worklog struct {
	TimeSpent   string `json:"timeSpent"`
	NewEstimate string `json:"newEstimate"`
	Started     string `json:"started"`
	Comment     string `json:"comment"`
}

type AddComment struct {
	IssueKey string `json:"issueKey"`
	Body     string `json:"body"`
}

// RefreshIssue (re)loads the form. With an IssueKey it loads the edit
// schema of that issue; otherwise the create schema of ProjectKey and
// IssueType (a name or id, the first standard type when empty).
type RefreshIssue struct {
	IssueKey   string `json:"issueKey,omitempty"`
	ProjectKey string `json:"projectKey,omitempty"`
	IssueType  string `json:"issueType,omitempty"`
}

// Responses (host to editor, correlated).

type IssueSuggestionsList struct {
	Issues []fields.IssueSuggestion `json:"issues"`
	Nonce  string                   `json:"nonce"`
}

// SelectOptionsList carries raw option objects as returned by Jira.
type SelectOptionsList struct {
	Options []map[string]any `json:"options"`
	Nonce   string           `json:"nonce"`
}

// OptionCreated reports a newly created select option. FieldValues holds
// the created value under FieldKey; SelectFieldOptions holds the options to
// append to the field's allowed values.
type OptionCreated struct {
	FieldValues        map[string]any              `json:"fieldValues"`
	SelectFieldOptions map[string][]map[string]any `json:"selectFieldOptions"`
	FieldKey           string                      `json:"fieldKey"`
	Nonce              string                      `json:"nonce"`
}

// Pushes (host to editor, unsolicited).

// Error reports a failed operation. When Nonce is set it answers a
// correlated request; FieldValues, when present, are authoritative server
// values for the fields involved.
type Error struct {
	Reason      string         `json:"reason"`
	FieldValues map[string]any `json:"fieldValues,omitempty"`
	Nonce       string         `json:"nonce,omitempty"`
}

type FieldValueUpdate struct {
	FieldKey    string         `json:"fieldKey,omitempty"`
	FieldValues map[string]any `json:"fieldValues"`
}

type PMFStatus struct {
	ShowPMF bool `json:"showPMF"`
}

type UpdateFeatureFlags struct {
	FeatureFlags map[string]bool `json:"featureFlags"`
}

type LoadingStart struct {
	FieldKey string `json:"fieldKey,omitempty"`
}

type LoadingEnd struct {
	FieldKey string `json:"fieldKey,omitempty"`
}

type AdditionalSettings struct {
	Settings map[string]any `json:"settings"`
}

type IssueCreated struct {
	Key string `json:"key"`
}

// EditIssueData delivers the field schema and initial values of a session.
type EditIssueData struct {
	Mode        fields.Mode         `json:"mode"`
	IssueKey    string              `json:"issueKey,omitempty"`
	IssueType   string              `json:"issueType,omitempty"`
	IssueTypeID string              `json:"issueTypeId,omitempty"`
	ProjectKey  string              `json:"projectKey,omitempty"`
	Site        Site                `json:"site"`
	Fields      []fields.Descriptor `json:"fields"`
	FieldValues map[string]any      `json:"fieldValues"`
}

func (FetchIssues) MessageType() string          { return TypeFetchIssues }
func (FetchSelectOptions) MessageType() string   { return TypeFetchSelectOptions }
func (CreateOption) MessageType() string         { return TypeCreateOption }
func (OpenJiraIssue) MessageType() string        { return TypeOpenJiraIssue }
func (EditIssue) MessageType() string            { return TypeEditIssue }
func (CreateIssue) MessageType() string          { return TypeCreateIssue }
func (AddComment) MessageType() string           { return TypeAddComment }
func (RefreshIssue) MessageType() string         { return TypeRefreshIssue }
func (IssueSuggestionsList) MessageType() string { return TypeIssueSuggestionsList }
func (SelectOptionsList) MessageType() string    { return TypeSelectOptionsList }
func (OptionCreated) MessageType() string        { return TypeOptionCreated }
func (Error) MessageType() string                { return TypeError }
func (FieldValueUpdate) MessageType() string     { return TypeFieldValueUpdate }
func (PMFStatus) MessageType() string            { return TypePMFStatus }
func (UpdateFeatureFlags) MessageType() string   { return TypeUpdateFeatureFlags }
func (LoadingStart) MessageType() string         { return TypeLoadingStart }
func (LoadingEnd) MessageType() string           { return TypeLoadingEnd }
func (AdditionalSettings) MessageType() string   { return TypeAdditionalSettings }
func (IssueCreated) MessageType() string         { return TypeIssueCreated }
func (EditIssueData) MessageType() string        { return TypeEditIssueData }

func (m FetchIssues) CorrelationID() string          { return m.Nonce }
func (m FetchSelectOptions) CorrelationID() string   { return m.Nonce }
func (m CreateOption) CorrelationID() string         { return m.Nonce }
func (m IssueSuggestionsList) CorrelationID() string { return m.Nonce }
func (m SelectOptionsList) CorrelationID() string    { return m.Nonce }
func (m OptionCreated) CorrelationID() string        { return m.Nonce }
func (m Error) CorrelationID() string                { return m.Nonce }
