package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// DefaultTemplates are the built-in read-only presentations.
var DefaultTemplates = map[DisplayFormat]string{
	FormatText:         `{{ .Text | default "None" }}`,
	FormatRelativeDate: `{{ if .Time.IsZero }}{{ .Text | default "None" }}{{ else }}{{ relative .Time .Now }}{{ end }}`,
	FormatIcon:         `{{ .Text | default "None" }}`,
	FormatLozenge:      `{{ .Text | default "None" | upper }}`,
	FormatAvatar:       `{{ if .Text }}({{ initials .Text | upper | trunc 2 }}) {{ .Text }}{{ else }}Unassigned{{ end }}`,
}

// DisplayData is the value passed to a read-only template.
type DisplayData struct {
	Text string
	Time time.Time
	Now  time.Time
}

// Templates renders read-only values through sprig-enabled text templates.
type Templates struct {
	byFormat map[DisplayFormat]*template.Template
}

// FuncMap returns the functions available to display templates.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["relative"] = relativeTime
	fm["formatJiraDate"] = formatJiraDate
	return fm
}

// NewTemplates parses the default templates with overrides applied.
// Override keys are DisplayFormat names.
func NewTemplates(overrides map[string]string) (*Templates, error) {
	t := &Templates{byFormat: make(map[DisplayFormat]*template.Template, len(DefaultTemplates))}
	for format, src := range DefaultTemplates {
		if o, ok := overrides[string(format)]; ok && strings.TrimSpace(o) != "" {
			src = o
		}
		tmpl, err := template.New(string(format)).Funcs(FuncMap()).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s display template: %w", format, err)
		}
		t.byFormat[format] = tmpl
	}
	for k := range overrides {
		if _, ok := DefaultTemplates[DisplayFormat(k)]; !ok {
			return nil, fmt.Errorf("unknown display format %q", k)
		}
	}
	return t, nil
}

var defaultTemplates = func() *Templates {
	t, err := NewTemplates(nil)
	if err != nil {
		panic(err)
	}
	return t
}()

// Execute renders data in the given format. A failing template falls back to
// the raw text.
func (t *Templates) Execute(format DisplayFormat, data DisplayData) string {
	if t == nil {
		t = defaultTemplates
	}
	tmpl, ok := t.byFormat[format]
	if !ok {
		tmpl = t.byFormat[FormatText]
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return data.Text
	}
	return buf.String()
}

// ParseJiraTime parses the timestamp and date layouts Jira returns.
func ParseJiraTime(s string) (time.Time, bool) {
	s = strings.Replace(s, "Z", "+0000", 1)
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatJiraDate(input, layout string) string {
	t, ok := ParseJiraTime(input)
	if !ok {
		return input
	}
	return t.Format(layout)
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}
	var s string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		s = plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		s = plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		s = plural(int(d.Hours()/24), "day")
	case d < 365*24*time.Hour:
		s = plural(int(d.Hours()/(24*30)), "month")
	default:
		s = plural(int(d.Hours()/(24*365)), "year")
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
