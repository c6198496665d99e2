package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jbeckham/jira-issue-editor/internal/jira"
)

// ValueMap maps field keys to current values. Values are heterogeneous:
// strings, numbers, option maps or slices depending on the field's ValueType.
type ValueMap map[string]any

// Clone returns a shallow copy of m.
func (m ValueMap) Clone() ValueMap {
	out := make(ValueMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with every entry of other applied on top.
// Entries of other win.
func (m ValueMap) Merge(other map[string]any) ValueMap {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// FromIssue builds the initial value map of an issue.
func FromIssue(issue *jira.Issue) ValueMap {
	if issue == nil {
		return ValueMap{}
	}
	out := make(ValueMap, len(issue.Raw)+1)
	for k, v := range issue.Raw {
		out[k] = v
	}
	out["key"] = issue.Key
	return out
}

// OptionFromMap normalises a raw Jira object (allowed value, autocomplete
// result, created entity) into an Option.
func OptionFromMap(m map[string]any) Option {
	o := Option{Raw: m}
	o.ID = StringOf(m["id"])
	if o.ID == "" {
		o.ID = StringOf(m["accountId"])
	}
	o.Value = StringOf(m["value"])
	o.Name = StringOf(m["name"])
	if o.Name == "" {
		o.Name = StringOf(m["displayName"])
	}
	if o.Name == "" {
		o.Name = StringOf(m["label"])
	}
	o.IconURL = StringOf(m["iconUrl"])
	if o.IconURL == "" {
		if avatars, ok := m["avatarUrls"].(map[string]any); ok {
			o.IconURL = StringOf(avatars["24x24"])
		}
	}
	return o
}

// OptionsFromMaps converts a list of raw objects.
func OptionsFromMaps(list []map[string]any) []Option {
	out := make([]Option, 0, len(list))
	for _, m := range list {
		out = append(out, OptionFromMap(m))
	}
	return out
}

// OptionsFromValue extracts the selected options of a select-like value.
// Plain strings (labels) become options carrying only a Value.
func OptionsFromValue(v any) []Option {
	switch val := v.(type) {
	case nil:
		return nil
	case Option:
		return []Option{val}
	case []Option:
		return val
	case map[string]any:
		return []Option{OptionFromMap(val)}
	case string:
		if val == "" {
			return nil
		}
		return []Option{{Value: val}}
	case []string:
		out := make([]Option, 0, len(val))
		for _, s := range val {
			out = append(out, Option{Value: s})
		}
		return out
	case []map[string]any:
		return OptionsFromMaps(val)
	case []any:
		var out []Option
		for _, item := range val {
			out = append(out, OptionsFromValue(item)...)
		}
		return out
	}
	return nil
}

// DisplayString returns a short human-readable rendering of any field value.
func DisplayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Option:
		return val.Label()
	case []Option:
		labels := make([]string, 0, len(val))
		for _, o := range val {
			labels = append(labels, o.Label())
		}
		return strings.Join(labels, ", ")
	case map[string]any:
		for _, k := range []string{"displayName", "name", "value", "key", "summary", "id"} {
			if s := StringOf(val[k]); s != "" {
				return s
			}
		}
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := DisplayString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	}
	return StringOf(v)
}

// StringOf formats a scalar JSON value as text.
func StringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}
