// Package validate holds the client-side checks run on raw widget input
// before an edit is dispatched.
package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
)

// Date layouts Jira accepts for date and datetime fields.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05.000-0700"
)

var durationRe = regexp.MustCompile(`^\s*(\d+(\.\d+)?[wdhm]\s*)+$`)

// Required returns "<name> is required" when s is blank.
func Required(name, s string) string {
	if strings.TrimSpace(s) == "" {
		return name + " is required"
	}
	return ""
}

// Number returns "<name> must be a number" when s does not parse as one.
func Number(name, s string) string {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return name + " must be a number"
	}
	return ""
}

// URL returns "<name> must be a URL" unless s is an absolute URL with a host.
func URL(name, s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return name + " must be a URL"
	}
	return ""
}

// Duration checks the Jira free-text duration grammar ("3w 4d 12h", "30m").
// The string is never parsed into a number.
func Duration(name, s string) string {
	if !durationRe.MatchString(s) {
		return name + " must be a duration like 3w 4d 12h"
	}
	return ""
}

// Date checks s against the date (or datetime) layout.
func Date(name, s string, withTime bool) string {
	layout := DateLayout
	if withTime {
		layout = DateTimeLayout
	}
	if _, err := time.Parse(layout, strings.TrimSpace(s)); err != nil {
		return name + " must be a date (" + layout + ")"
	}
	return ""
}

// Field runs the checks that apply to f for raw input s. Empty optional
// input always passes: clearing a field is a legal edit.
func Field(f fields.Descriptor, s string) string {
	if strings.TrimSpace(s) == "" {
		if f.Required {
			return Required(f.Name, s)
		}
		return ""
	}
	switch f.ValueType {
	case fields.ValueNumber:
		return Number(f.Name, s)
	case fields.ValueURL:
		return URL(f.Name, s)
	}
	switch f.UIType {
	case fields.UIDate:
		return Date(f.Name, s, false)
	case fields.UIDateTime:
		return Date(f.Name, s, true)
	case fields.UITimetracking:
		return Duration(f.Name, s)
	}
	return ""
}
