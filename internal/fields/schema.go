package fields

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jbeckham/jira-issue-editor/internal/jira"
)

// SortFieldValues returns the fields ordered by DisplayOrder ascending.
// The sort is stable: fields sharing a DisplayOrder keep their input order,
// so they never swap across re-renders. The input slice is not modified.
func SortFieldValues(fields []Descriptor) []Descriptor {
	out := make([]Descriptor, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// systemRank orders well-known system fields the way the Jira issue screen
// does. Custom fields come after, then the composite sections.
var systemRank = map[string]int{
	"project":      0,
	"issuetype":    1,
	"summary":      2,
	"parent":       3,
	"status":       4,
	"priority":     5,
	"assignee":     6,
	"reporter":     7,
	"labels":       8,
	"components":   9,
	"fixVersions":  10,
	"versions":     11,
	"duedate":      12,
	"description":  13,
	"environment":  14,
	"timetracking": 15,
}

var trailingRank = map[string]int{
	"created":    990,
	"updated":    991,
	"attachment": 1000,
	"issuelinks": 1001,
	"subtasks":   1002,
	"worklog":    1003,
	"comment":    1004,
}

const customRankBase = 100

// FromMetaSet converts a create/edit metadata map into descriptors with a
// deterministic DisplayOrder, already sorted. Jira returns editmeta as a JSON
// object, so server order is not available; system fields follow the issue
// screen order and custom fields are ordered by name.
func FromMetaSet(metas map[string]jira.FieldMeta) []Descriptor {
	keys := make([]string, 0, len(metas))
	for k := range metas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rankOf(keys[i]), rankOf(keys[j])
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(metas[keys[i]].Name), strings.ToLower(metas[keys[j]].Name)
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	out := make([]Descriptor, 0, len(keys))
	for i, k := range keys {
		out = append(out, FromMeta(k, metas[k], i))
	}
	return out
}

// FromMetaList converts createmeta's field list, keeping server order for
// custom fields but still lifting system fields to their usual position.
func FromMetaList(metas []jira.FieldMeta) []Descriptor {
	set := make(map[string]jira.FieldMeta, len(metas))
	for _, m := range metas {
		key := m.FieldID
		if key == "" {
			key = m.Key
		}
		set[key] = m
	}
	return FromMetaSet(set)
}

func rankOf(key string) int {
	if r, ok := systemRank[key]; ok {
		return r
	}
	if r, ok := trailingRank[key]; ok {
		return r
	}
	return customRankBase
}

// FromMeta converts one field's metadata into a Descriptor. It performs no
// validation: combinations the mapping does not know become NonEditable.
func FromMeta(key string, m jira.FieldMeta, order int) Descriptor {
	d := Descriptor{
		Key:             key,
		Name:            m.Name,
		Required:        m.Required,
		AutoCompleteURL: m.AutoCompleteURL,
		DisplayOrder:    order,
		AllowedValues:   OptionsFromMaps(m.AllowedValues),
	}
	if len(m.AllowedValues) == 0 {
		d.AllowedValues = nil
	}
	if d.Name == "" {
		d.Name = key
	}

	system := m.Schema.System
	if system == "" {
		system = key
	}
	custom := m.Schema.Custom

	if ui, vt, ok := systemMapping(system); ok {
		d.UIType, d.ValueType = ui, vt
	} else {
		d.UIType, d.ValueType = schemaMapping(m.Schema.Type, m.Schema.Items, custom)
	}

	switch {
	case m.Schema.Type == "array":
		d.IsArray = true
		d.IsMulti = d.UIType == UISelect || d.UIType == UICheckbox
	case system == "labels":
		d.IsArray, d.IsMulti = true, true
	}

	switch system {
	case "description", "environment":
		d.Multiline = true
	case "labels":
		if d.AutoCompleteURL == "" {
			d.AutoCompleteURL = "/rest/api/1.0/labels/suggest?query="
		}
	case "components":
		d.CreateURL = "/rest/api/3/component"
	case "fixVersions", "versions":
		d.CreateURL = "/rest/api/3/version"
	}
	if strings.HasSuffix(custom, ":textarea") {
		d.Multiline = true
	}

	if len(m.Operations) > 0 && !editable(m.Operations) && d.UIType != UIComments {
		d.UIType = UINonEditable
	}
	return d
}

func editable(ops []string) bool {
	for _, op := range ops {
		switch op {
		case "set", "add", "edit":
			return true
		}
	}
	return false
}

func systemMapping(system string) (UIType, ValueType, bool) {
	switch system {
	case "summary":
		return UIInput, ValueString, true
	case "description", "environment":
		return UIInput, ValueString, true
	case "parent":
		return UIIssueLink, ValueString, true
	case "issuelinks":
		return UIIssueLinks, ValueIssueLinks, true
	case "timetracking":
		return UITimetracking, ValueTimetracking, true
	case "worklog":
		return UIWorklog, ValueWorklog, true
	case "attachment":
		return UIAttachment, ValueAttachment, true
	case "comment":
		return UIComments, ValueCommentsPage, true
	case "subtasks":
		return UISubtasks, ValueString, true
	case "labels":
		return UISelect, ValueString, true
	case "status":
		return UINonEditable, ValueStatus, true
	case "created", "updated", "resolutiondate", "lastViewed":
		return UINonEditable, ValueDateTime, true
	case "creator":
		return UINonEditable, ValueUser, true
	}
	return "", "", false
}

func schemaMapping(schemaType, items, custom string) (UIType, ValueType) {
	switch schemaType {
	case "string":
		switch {
		case strings.HasSuffix(custom, ":url"):
			return UIInput, ValueURL
		case strings.HasSuffix(custom, ":sd-request-participants"):
			return UIParticipants, ValueUser
		}
		return UIInput, ValueString
	case "number":
		return UIInput, ValueNumber
	case "date":
		return UIDate, ValueDate
	case "datetime":
		return UIDateTime, ValueDateTime
	case "option", "option-with-child":
		if strings.HasSuffix(custom, ":radiobuttons") {
			return UIRadio, ValueOption
		}
		return UISelect, ValueOption
	case "user":
		return UISelect, ValueUser
	case "group":
		return UISelect, ValueGroup
	case "project":
		return UISelect, ValueProject
	case "issuetype":
		return UISelect, ValueIssueType
	case "priority":
		return UISelect, ValuePriority
	case "component":
		return UISelect, ValueComponent
	case "version":
		return UISelect, ValueVersion
	case "securitylevel", "resolution":
		return UISelect, ValueOption
	case "status":
		return UINonEditable, ValueStatus
	case "timetracking":
		return UITimetracking, ValueTimetracking
	case "comments-page":
		return UIComments, ValueCommentsPage
	case "array":
		return arrayMapping(items, custom)
	}
	return UINonEditable, ValueString
}

func arrayMapping(items, custom string) (UIType, ValueType) {
	switch items {
	case "option":
		if strings.HasSuffix(custom, ":multicheckboxes") {
			return UICheckbox, ValueOption
		}
		return UISelect, ValueOption
	case "string":
		return UISelect, ValueString
	case "user":
		if strings.HasSuffix(custom, ":sd-request-participants") {
			return UIParticipants, ValueUser
		}
		return UISelect, ValueUser
	case "group":
		return UISelect, ValueGroup
	case "component":
		return UISelect, ValueComponent
	case "version":
		return UISelect, ValueVersion
	case "attachment":
		return UIAttachment, ValueAttachment
	case "issuelinks":
		return UIIssueLinks, ValueIssueLinks
	case "worklog":
		return UIWorklog, ValueWorklog
	}
	return UINonEditable, ValueString
}

// IssuePickerURL returns the picker endpoint scoped to a project by JQL.
func IssuePickerURL(jql string) string {
	q := url.Values{}
	q.Set("currentJQL", jql)
	q.Set("showSubTasks", "false")
	return "/rest/api/3/issue/picker?" + q.Encode()
}

// ProjectJQL returns the JQL that scopes issue searches to one project.
func ProjectJQL(projectKey string) string {
	if projectKey == "" {
		return ""
	}
	return `project = "` + projectKey + `"`
}
