// Package render maps a field descriptor and its current value to the
// widget that edits or displays it.
package render

import (
	"strings"
	"time"

	"github.com/jbeckham/jira-issue-editor/internal/adf"
	"github.com/jbeckham/jira-issue-editor/internal/fields"
)

// UnknownFieldWarning labels fields whose uiType is not recognised.
const UnknownFieldWarning = "Unknown field type"

// Context carries the issue-level inputs rendering depends on.
type Context struct {
	IssueType  string
	ProjectKey string
	// RichText enables the ADF editor for multiline inputs.
	RichText       bool
	EpicIssueTypes []string
	Templates      *Templates
	Now            time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c Context) isEpic() bool {
	for _, t := range c.EpicIssueTypes {
		if strings.EqualFold(t, c.IssueType) {
			return true
		}
	}
	return false
}

// Render returns the widget for f holding value. It never fails: unknown
// field types degrade to a text input (create) or a warning (edit).
func Render(f fields.Descriptor, mode fields.Mode, value any, ctx Context) Widget {
	base := Base{Field: f}
	switch f.UIType {
	case fields.UIInput:
		return renderInput(base, value, ctx)
	case fields.UISelect:
		return renderSelect(base, value)
	case fields.UICheckbox:
		return CheckboxWidget{Base: base, Options: f.AllowedValues, Selected: fields.OptionsFromValue(value)}
	case fields.UIRadio:
		w := RadioWidget{Base: base, Options: f.AllowedValues}
		if sel := fields.OptionsFromValue(value); len(sel) > 0 {
			w.Selected = &sel[0]
		}
		return w
	case fields.UIDate, fields.UIDateTime:
		return DateWidget{
			Base:         base,
			Value:        fields.StringOf(value),
			WithTime:     f.UIType == fields.UIDateTime,
			WriteThrough: mode == fields.ModeEdit,
			Required:     mode == fields.ModeCreate && f.Required,
		}
	case fields.UIIssueLink:
		return renderIssueLink(base, value, ctx)
	case fields.UIIssueLinks:
		jql := fields.ProjectJQL(ctx.ProjectKey)
		return IssueLinksWidget{
			Base:      base,
			JQL:       jql,
			PickerURL: pickerURL(f, jql),
			Links:     linkRows(value),
			LinkTypes: f.AllowedValues,
		}
	case fields.UITimetracking:
		m, _ := value.(map[string]any)
		return TimetrackingWidget{
			Base:              base,
			OriginalEstimate:  fields.StringOf(m["originalEstimate"]),
			RemainingEstimate: fields.StringOf(m["remainingEstimate"]),
			TimeSpent:         fields.StringOf(m["timeSpent"]),
		}
	case fields.UIWorklog:
		if mode == fields.ModeEdit {
			return HiddenWidget{Base: base, Reason: "worklog is logged separately in edit mode"}
		}
		return renderWorklog(base, value)
	case fields.UIAttachment:
		return AttachmentWidget{Base: base, Items: attachmentRows(value)}
	case fields.UIComments:
		comments, total := commentRows(value)
		return CommentsWidget{Base: base, Comments: comments, Total: total}
	case fields.UIParticipants:
		return ParticipantsWidget{Base: base, Users: fields.OptionsFromValue(value)}
	case fields.UISubtasks:
		return SubtasksWidget{Base: base, Items: subtaskRows(value)}
	case fields.UINonEditable:
		return renderReadOnly(base, value, ctx)
	}

	if mode == fields.ModeCreate {
		return TextWidget{Base: base, Value: fields.DisplayString(value)}
	}
	return UnknownWidget{Base: base, Warning: UnknownFieldWarning, Raw: fields.DisplayString(value)}
}

// RenderAll sorts fs by display order and renders each field.
func RenderAll(fs []fields.Descriptor, mode fields.Mode, values fields.ValueMap, ctx Context) []Widget {
	sorted := fields.SortFieldValues(fs)
	out := make([]Widget, 0, len(sorted))
	for _, f := range sorted {
		out = append(out, Render(f, mode, values[f.Key], ctx))
	}
	return out
}

func renderInput(base Base, value any, ctx Context) Widget {
	f := base.Field
	text := fields.DisplayString(value)
	if adf.IsDocument(value) {
		text = adf.Text(value)
	}
	return TextWidget{
		Base:      base,
		Value:     text,
		Multiline: f.Multiline,
		RichText:  f.Multiline && ctx.RichText,
	}
}

func renderSelect(base Base, value any) SelectWidget {
	f := base.Field
	selected := fields.OptionsFromValue(value)
	return SelectWidget{
		Base:      base,
		Variant:   selectVariant(f),
		Multi:     f.IsMulti,
		Clearable: Clearable(f, selected),
		Options:   f.AllowedValues,
		Selected:  selected,
	}
}

func selectVariant(f fields.Descriptor) SelectVariant {
	async := f.AutoCompleteURL != "" ||
		(len(f.AllowedValues) == 0 && f.ValueType == fields.ValueUser)
	creatable := f.CreateURL != ""
	switch {
	case async && creatable:
		return SelectAsyncCreatable
	case async:
		return SelectAsync
	case creatable:
		return SelectCreatable
	}
	return SelectPlain
}

// Clearable reports whether a select may be emptied. Priority never may;
// a required field only while it holds a multi-value selection.
func Clearable(f fields.Descriptor, selected []fields.Option) bool {
	if f.Key == "priority" || f.ValueType == fields.ValuePriority {
		return false
	}
	if f.Required {
		return f.IsMulti && len(selected) > 0
	}
	return true
}

func renderIssueLink(base Base, value any, ctx Context) Widget {
	if ctx.isEpic() {
		return HiddenWidget{Base: base, Reason: "epics cannot have a parent"}
	}
	jql := fields.ProjectJQL(ctx.ProjectKey)
	return IssueLinkWidget{
		Base:      base,
		JQL:       jql,
		PickerURL: pickerURL(base.Field, jql),
		Default:   ParentSuggestion(value),
	}
}

func pickerURL(f fields.Descriptor, jql string) string {
	if f.AutoCompleteURL != "" {
		return f.AutoCompleteURL
	}
	return fields.IssuePickerURL(jql)
}

// ParentSuggestion converts an issue's parent value into the shape the issue
// search widget uses. It returns nil when there is no parent.
func ParentSuggestion(parent any) *fields.IssueSuggestion {
	switch p := parent.(type) {
	case fields.IssueSuggestion:
		return &p
	case *fields.IssueSuggestion:
		return p
	case map[string]any:
		key := fields.StringOf(p["key"])
		if key == "" {
			return nil
		}
		pf, _ := p["fields"].(map[string]any)
		summary := fields.StringOf(pf["summary"])
		var img string
		if it, ok := pf["issuetype"].(map[string]any); ok {
			img = fields.StringOf(it["iconUrl"])
		}
		return &fields.IssueSuggestion{
			Img:         img,
			Key:         key,
			KeyHTML:     key,
			Summary:     summary,
			SummaryText: summary,
		}
	case string:
		if p == "" {
			return nil
		}
		return &fields.IssueSuggestion{Key: p, KeyHTML: p}
	}
	return nil
}

func renderWorklog(base Base, value any) WorklogWidget {
	m, _ := value.(map[string]any)
	enabled, _ := m["enabled"].(bool)
	return WorklogWidget{
		Base:        base,
		Enabled:     enabled,
		TimeSpent:   fields.StringOf(m[WorklogTimeSpent]),
		NewEstimate: fields.StringOf(m[WorklogNewEstimate]),
		Started:     fields.StringOf(m[WorklogStarted]),
		Comment:     fields.StringOf(m[WorklogComment]),
	}
}

func renderReadOnly(base Base, value any, ctx Context) ReadOnlyWidget {
	w := ReadOnlyWidget{Base: base, Format: formatFor(base.Field.ValueType)}
	data := DisplayData{Text: fields.DisplayString(value), Now: ctx.now()}
	if adf.IsDocument(value) {
		data.Text = adf.Text(value)
	}
	if m, ok := value.(map[string]any); ok {
		if opt := fields.OptionFromMap(m); opt.IconURL != "" {
			w.IconURL = opt.IconURL
		}
		if cat, ok := m["statusCategory"].(map[string]any); ok {
			w.Color = fields.StringOf(cat["colorName"])
		}
	}
	if w.Format == FormatRelativeDate {
		if t, ok := ParseJiraTime(data.Text); ok {
			data.Time = t
		}
	}
	w.Text = ctx.Templates.Execute(w.Format, data)
	return w
}

func formatFor(vt fields.ValueType) DisplayFormat {
	switch vt {
	case fields.ValueDate, fields.ValueDateTime:
		return FormatRelativeDate
	case fields.ValuePriority, fields.ValueIssueType, fields.ValueProject:
		return FormatIcon
	case fields.ValueStatus, fields.ValueTransition:
		return FormatLozenge
	case fields.ValueUser:
		return FormatAvatar
	}
	return FormatText
}

func asMaps(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	if typed, ok := v.([]map[string]any); ok {
		out = append(out, typed...)
	}
	return out
}

func linkRows(v any) []LinkRow {
	var rows []LinkRow
	for _, link := range asMaps(v) {
		lt, _ := link["type"].(map[string]any)
		row := LinkRow{ID: fields.StringOf(link["id"])}
		issue, ok := link["outwardIssue"].(map[string]any)
		if ok {
			row.Relation = fields.StringOf(lt["outward"])
		} else {
			issue, _ = link["inwardIssue"].(map[string]any)
			row.Relation = fields.StringOf(lt["inward"])
		}
		if issue == nil {
			continue
		}
		row.Key = fields.StringOf(issue["key"])
		if f, ok := issue["fields"].(map[string]any); ok {
			row.Summary = fields.StringOf(f["summary"])
			row.Status = fields.DisplayString(f["status"])
		}
		rows = append(rows, row)
	}
	return rows
}

func attachmentRows(v any) []AttachmentRow {
	var rows []AttachmentRow
	for _, a := range asMaps(v) {
		size, _ := a["size"].(float64)
		rows = append(rows, AttachmentRow{
			Filename: fields.StringOf(a["filename"]),
			Size:     int64(size),
			MimeType: fields.StringOf(a["mimeType"]),
			Author:   fields.DisplayString(a["author"]),
			Created:  fields.StringOf(a["created"]),
		})
	}
	return rows
}

func commentRows(v any) ([]CommentRow, int) {
	list := v
	total := -1
	if page, ok := v.(map[string]any); ok {
		list = page["comments"]
		if t, ok := page["total"].(float64); ok {
			total = int(t)
		}
	}
	var rows []CommentRow
	for _, c := range asMaps(list) {
		rows = append(rows, CommentRow{
			ID:      fields.StringOf(c["id"]),
			Author:  fields.DisplayString(c["author"]),
			Created: fields.StringOf(c["created"]),
			Body:    adf.Text(c["body"]),
		})
	}
	if total < 0 {
		total = len(rows)
	}
	return rows, total
}

func subtaskRows(v any) []SubtaskRow {
	var rows []SubtaskRow
	for _, s := range asMaps(v) {
		row := SubtaskRow{Key: fields.StringOf(s["key"])}
		if f, ok := s["fields"].(map[string]any); ok {
			row.Summary = fields.StringOf(f["summary"])
			row.Status = fields.DisplayString(f["status"])
		}
		rows = append(rows, row)
	}
	return rows
}
