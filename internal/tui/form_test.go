package tui

import (
	"strings"
	"testing"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/render"
)

func base(key, name string) render.Base {
	return render.Base{Field: fields.Descriptor{Key: key, Name: name}}
}

func sampleWidgets() []render.Widget {
	return []render.Widget{
		render.TextWidget{Base: base("summary", "Summary"), Value: "Fix login"},
		render.HiddenWidget{Base: base("customfield_10014", "Epic Link"), Reason: "epic"},
		render.SelectWidget{Base: base("labels", "Labels"), Multi: true,
			Selected: []fields.Option{{Value: "backend"}, {Value: "ui"}}},
		render.DateWidget{Base: base("duedate", "Due date"), Value: "2025-07-01"},
	}
}

func TestFormMoveSkipsHidden(t *testing.T) {
	v := newFormView(80, 30)
	v.setWidgets(sampleWidgets())

	v.move(1)
	if got := v.selected().Descriptor().Key; got != "labels" {
		t.Errorf("expected labels after hidden row, got %s", got)
	}
	v.move(-1)
	if got := v.selected().Descriptor().Key; got != "summary" {
		t.Errorf("expected summary, got %s", got)
	}
	v.move(-1)
	if v.cursor != 0 {
		t.Errorf("cursor should stay at the top, got %d", v.cursor)
	}
}

func TestFormSetWidgetsKeepsCursor(t *testing.T) {
	v := newFormView(80, 30)
	v.setWidgets(sampleWidgets())
	v.move(1)
	v.move(1) // duedate

	reordered := []render.Widget{
		render.DateWidget{Base: base("duedate", "Due date")},
		render.TextWidget{Base: base("summary", "Summary")},
	}
	v.setWidgets(reordered)
	if got := v.selected().Descriptor().Key; got != "duedate" {
		t.Errorf("expected cursor to follow duedate, got %s", got)
	}

	v.setWidgets([]render.Widget{render.TextWidget{Base: base("summary", "Summary")}})
	if v.cursor != 0 {
		t.Errorf("expected cursor reset when the field disappears, got %d", v.cursor)
	}
}

func TestFormViewShowsRows(t *testing.T) {
	v := newFormView(80, 30)
	if !strings.Contains(v.View(), "Loading fields") {
		t.Error("expected loading text before the first build")
	}

	v.setWidgets(sampleWidgets())
	v.build("labels", "*")
	view := v.View()

	for _, want := range []string{"Summary", "Fix login", "backend, ui", "2025-07-01", "▸"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Epic Link") {
		t.Error("hidden widget must not render")
	}
	if !strings.Contains(view, "backend, ui *") {
		t.Error("expected spinner next to the loading field")
	}
}

func TestRenderWidgetVariants(t *testing.T) {
	tests := []struct {
		name   string
		widget render.Widget
		want   []string
	}{
		{
			name:   "empty user select",
			widget: render.SelectWidget{Base: render.Base{Field: fields.Descriptor{Key: "assignee", Name: "Assignee", ValueType: fields.ValueUser}}},
			want:   []string{"Assignee", "Unassigned"},
		},
		{
			name: "checkbox",
			widget: render.CheckboxWidget{Base: base("cf", "Flags"),
				Options:  []fields.Option{{Value: "a"}, {Value: "b"}},
				Selected: []fields.Option{{Value: "b"}}},
			want: []string{"[ ] a", "[x] b"},
		},
		{
			name: "radio",
			widget: render.RadioWidget{Base: base("cf", "Env"),
				Options:  []fields.Option{{Value: "prod"}, {Value: "dev"}},
				Selected: &fields.Option{Value: "dev"}},
			want: []string{"( ) prod", "(•) dev"},
		},
		{
			name:   "datetime",
			widget: render.DateWidget{Base: base("cf", "Start"), Value: "2025-07-01T10:23:00.000+0000", WithTime: true},
			want:   []string{"2025-07-01 10:23"},
		},
		{
			name:   "parent",
			widget: render.IssueLinkWidget{Base: base("parent", "Parent"), Default: &fields.IssueSuggestion{Key: "PROJ-7", SummaryText: "Epic"}},
			want:   []string{"PROJ-7", "Epic"},
		},
		{
			name:   "multiline",
			widget: render.TextWidget{Base: base("description", "Description"), Multiline: true},
			want:   []string{"─── Description", "No description"},
		},
		{
			name:   "timetracking",
			widget: render.TimetrackingWidget{Base: base("timetracking", "Time tracking"), OriginalEstimate: "3d"},
			want:   []string{"original 3d", "remaining -"},
		},
		{
			name:   "worklog off",
			widget: render.WorklogWidget{Base: base("worklog", "Log work")},
			want:   []string{"Not logging work"},
		},
		{
			name:   "attachments",
			widget: render.AttachmentWidget{Base: base("attachment", "Attachments"), Items: []render.AttachmentRow{{Filename: "log.txt", Size: 2048}}},
			want:   []string{"Attachments (1)", "log.txt", "2.0 KB"},
		},
		{
			name:   "subtasks",
			widget: render.SubtasksWidget{Base: base("subtasks", "Sub-tasks"), Items: []render.SubtaskRow{{Key: "PROJ-9", Summary: "Write docs", Status: "Done"}}},
			want:   []string{"✓", "PROJ-9", "Write docs"},
		},
		{
			name:   "unknown",
			widget: render.UnknownWidget{Base: base("cf", "Odd"), Warning: render.UnknownFieldWarning, Raw: "42"},
			want:   []string{"⚠ Unknown field type", "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderWidget(tt.widget, 78)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("renderWidget() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in       string
		withTime bool
		want     string
	}{
		{"2025-07-01T10:23:00.000+0000", true, "2025-07-01 10:23"},
		{"2025-07-01T10:23:00.000+0000", false, "2025-07-01"},
		{"2025-07-01", true, "2025-07-01"},
		{"", false, ""},
	}
	for _, tt := range tests {
		if got := formatDate(tt.in, tt.withTime); got != tt.want {
			t.Errorf("formatDate(%q, %v) = %q, want %q", tt.in, tt.withTime, got, tt.want)
		}
	}
}

func TestHumanSize(t *testing.T) {
	if got := humanSize(512); got != "512 B" {
		t.Errorf("humanSize(512) = %q", got)
	}
	if got := humanSize(3 << 20); got != "3.0 MB" {
		t.Errorf("humanSize(3MB) = %q", got)
	}
}
