package dispatch

import (
	"strconv"
	"strings"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
	"github.com/jbeckham/jira-issue-editor/internal/render"
	"github.com/jbeckham/jira-issue-editor/internal/validate"
)

// FormatEditValue reduces a widget value to the shape Jira expects for f.
// String and Number fields unwrap option objects to their "value"; Group
// fields are sent as {"name": ...}; nil is an explicit clear.
func FormatEditValue(f fields.Descriptor, v any) any {
	if v == nil {
		return nil
	}
	if f.UIType == fields.UIIssueLink {
		return issueRef(v)
	}
	switch f.ValueType {
	case fields.ValueString, fields.ValueNumber:
		return unwrapValue(v)
	case fields.ValueGroup:
		return mapEach(v, func(item any) any {
			return map[string]any{"name": unwrapValue(item)}
		})
	}

	switch val := v.(type) {
	case fields.Option:
		p := optionPayload(f.ValueType, val)
		if f.IsArray {
			return []any{p}
		}
		return p
	case []fields.Option:
		if !f.IsArray {
			if len(val) == 0 {
				return nil
			}
			return optionPayload(f.ValueType, val[0])
		}
		out := make([]any, 0, len(val))
		for _, o := range val {
			out = append(out, optionPayload(f.ValueType, o))
		}
		return out
	case []any, []map[string]any:
		// Appending to a stored server list mixes raw maps with options.
		if optionValued(f.ValueType) {
			return FormatEditValue(f, fields.OptionsFromValue(val))
		}
	}
	return v
}

func optionValued(vt fields.ValueType) bool {
	switch vt {
	case fields.ValueUser, fields.ValueOption, fields.ValueComponent, fields.ValueVersion,
		fields.ValuePriority, fields.ValueIssueType, fields.ValueProject:
		return true
	}
	return false
}

// issueRef reduces a parent value to {"key": ...}.
func issueRef(v any) any {
	var key string
	switch val := v.(type) {
	case fields.IssueSuggestion:
		key = val.Key
	case *fields.IssueSuggestion:
		if val != nil {
			key = val.Key
		}
	case map[string]any:
		key = fields.StringOf(val["key"])
	case string:
		key = val
	}
	if key == "" {
		return nil
	}
	return map[string]any{"key": key}
}

func unwrapValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return val["value"]
	case fields.Option:
		if val.Value != "" {
			return val.Value
		}
		return val.Label()
	case []any, []map[string]any, []fields.Option:
		return mapEach(val, unwrapValue)
	}
	return v
}

func mapEach(v any, fn func(any) any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, fn(item))
		}
		return out
	case []map[string]any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, fn(item))
		}
		return out
	case []fields.Option:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, fn(item))
		}
		return out
	}
	return fn(v)
}

func optionPayload(vt fields.ValueType, o fields.Option) map[string]any {
	switch vt {
	case fields.ValueUser:
		return map[string]any{"accountId": o.ID}
	case fields.ValueComponent, fields.ValueVersion:
		if o.ID == "" {
			return map[string]any{"name": o.Label()}
		}
	}
	switch {
	case o.ID != "":
		return map[string]any{"id": o.ID}
	case o.Value != "":
		return map[string]any{"value": o.Value}
	}
	return map[string]any{"name": o.Name}
}

// CoerceInput turns raw text from an input widget into the value stored
// for f. Empty text clears the field.
func CoerceInput(f fields.Descriptor, s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if f.ValueType == fields.ValueNumber {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return s
}

// ValidateForDispatch returns the inline message that blocks dispatching
// raw typed into w, or "".
func ValidateForDispatch(w render.Widget, raw string) string {
	switch w := w.(type) {
	case render.TextWidget:
		return w.Validate(raw)
	case render.DateWidget:
		return w.Validate(raw)
	}
	return validate.Field(w.Descriptor(), raw)
}

// ValidateSelection blocks clearing a required select.
func ValidateSelection(f fields.Descriptor, selected []fields.Option) string {
	if f.Required && len(selected) == 0 {
		return validate.Required(f.Name, "")
	}
	return ""
}

// EditMessage builds the outbound edit for one field.
func EditMessage(issueKey string, f fields.Descriptor, v any) protocol.EditIssue {
	return protocol.EditIssue{
		IssueKey:    issueKey,
		FieldKey:    f.Key,
		FieldValues: map[string]any{f.Key: FormatEditValue(f, v)},
	}
}

// CreatePayload formats every value of a create form, skipping empty ones
// and the composite worklog entry, which is logged after creation.
func CreatePayload(fs []fields.Descriptor, values fields.ValueMap) map[string]any {
	out := make(map[string]any, len(values))
	for _, f := range fs {
		v, ok := values[f.Key]
		if !ok || v == nil || f.UIType == fields.UIWorklog || f.UIType == fields.UINonEditable {
			continue
		}
		out[f.Key] = FormatEditValue(f, v)
	}
	return out
}

// MissingRequired lists the names of required fields without a value.
func MissingRequired(fs []fields.Descriptor, values fields.ValueMap) []string {
	var missing []string
	for _, f := range fs {
		if !f.Required || f.UIType == fields.UINonEditable {
			continue
		}
		if fields.DisplayString(values[f.Key]) == "" && len(fields.OptionsFromValue(values[f.Key])) == 0 {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
