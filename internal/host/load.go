package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/jira"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

// readOnlyMeta adds display-only fields that editmeta never lists.
var readOnlyMeta = map[string]jira.FieldMeta{
	"status":  {Name: "Status", Schema: jira.FieldSchema{Type: "status", System: "status"}},
	"created": {Name: "Created", Schema: jira.FieldSchema{Type: "datetime", System: "created"}},
	"updated": {Name: "Updated", Schema: jira.FieldSchema{Type: "datetime", System: "updated"}},
}

func (h *Host) refresh(ctx context.Context, m protocol.RefreshIssue) {
	h.emit(protocol.LoadingStart{})
	defer h.emit(protocol.LoadingEnd{})

	var (
		data protocol.EditIssueData
		err  error
	)
	if m.IssueKey != "" {
		data, err = h.loadEdit(ctx, m.IssueKey)
	} else {
		data, err = h.loadCreate(ctx, m.ProjectKey, m.IssueType)
	}
	if err != nil {
		h.log.Error("loading form failed", "issue", m.IssueKey, "project", m.ProjectKey, "error", err)
		h.fail(reasonOf(err), nil, "")
		return
	}
	h.setFields(data.Fields)
	h.emit(data)
}

func (h *Host) loadEdit(ctx context.Context, key string) (protocol.EditIssueData, error) {
	meta, err := h.api.GetEditMeta(ctx, key)
	if err != nil {
		return protocol.EditIssueData{}, err
	}
	issue, err := h.api.GetIssue(ctx, key)
	if err != nil {
		return protocol.EditIssueData{}, err
	}

	metas := make(map[string]jira.FieldMeta, len(meta.Fields)+len(readOnlyMeta))
	for k, v := range meta.Fields {
		metas[k] = v
	}
	for k, v := range readOnlyMeta {
		if _, ok := metas[k]; !ok {
			metas[k] = v
		}
	}
	fs := fields.FromMetaSet(metas)

	transitions, err := h.api.GetTransitions(ctx, key)
	if err != nil {
		h.log.Warn("loading transitions failed, status stays read-only", "issue", key, "error", err)
	} else {
		fs = withTransitions(fs, transitions)
	}

	data := protocol.EditIssueData{
		Mode:        fields.ModeEdit,
		IssueKey:    issue.Key,
		Site:        h.site,
		Fields:      fs,
		FieldValues: fields.FromIssue(issue),
	}
	if it := issue.Fields.IssueType; it != nil {
		data.IssueType = it.Name
		data.IssueTypeID = it.ID
	}
	if p := issue.Fields.Project; p != nil {
		data.ProjectKey = p.Key
	}
	h.log.Info("loaded issue", "issue", issue.Key, "fields", len(fs))
	return data, nil
}

// withTransitions turns the status field into a select over the issue's
// available workflow transitions.
func withTransitions(fs []fields.Descriptor, transitions []jira.Transition) []fields.Descriptor {
	out := make([]fields.Descriptor, len(fs))
	copy(out, fs)
	for i, f := range out {
		if f.Key != "status" {
			continue
		}
		opts := make([]fields.Option, 0, len(transitions))
		for _, t := range transitions {
			name := t.Name
			if t.To != nil && t.To.Name != "" && !strings.EqualFold(t.To.Name, t.Name) {
				name = t.Name + " → " + t.To.Name
			}
			opts = append(opts, fields.Option{ID: t.ID, Name: name})
		}
		f.UIType = fields.UISelect
		f.ValueType = fields.ValueTransition
		f.AllowedValues = opts
		f.Required = true
		out[i] = f
	}
	return out
}

func (h *Host) loadCreate(ctx context.Context, projectKey, issueType string) (protocol.EditIssueData, error) {
	if projectKey == "" {
		return protocol.EditIssueData{}, fmt.Errorf("a project is required to create an issue")
	}
	types, err := h.api.GetCreateIssueTypes(ctx, projectKey)
	if err != nil {
		return protocol.EditIssueData{}, err
	}
	it, ok := pickIssueType(types, issueType)
	if !ok {
		return protocol.EditIssueData{}, fmt.Errorf("issue type %q is not available in %s", issueType, projectKey)
	}

	metas, err := h.api.GetCreateMeta(ctx, projectKey, it.ID)
	if err != nil {
		return protocol.EditIssueData{}, err
	}
	fs := fields.FromMetaList(metas)

	values := fields.ValueMap{}
	for _, m := range metas {
		key := m.FieldID
		if key == "" {
			key = m.Key
		}
		if m.HasDefaultValue && m.DefaultValue != nil {
			values[key] = m.DefaultValue
		}
	}
	values["project"] = map[string]any{"key": projectKey}
	values["issuetype"] = map[string]any{"id": it.ID, "name": it.Name, "iconUrl": it.IconURL}

	// the issue type select also lists the other creatable types
	typeOpts := make([]fields.Option, 0, len(types))
	for _, t := range types {
		typeOpts = append(typeOpts, fields.Option{ID: t.ID, Name: t.Name, IconURL: t.IconURL})
	}
	for i, f := range fs {
		if f.Key == "issuetype" && len(f.AllowedValues) == 0 {
			fs[i].AllowedValues = typeOpts
		}
	}

	h.log.Info("loaded create form", "project", projectKey, "issueType", it.Name, "fields", len(fs))
	return protocol.EditIssueData{
		Mode:        fields.ModeCreate,
		IssueType:   it.Name,
		IssueTypeID: it.ID,
		ProjectKey:  projectKey,
		Site:        h.site,
		Fields:      fs,
		FieldValues: values,
	}, nil
}

// pickIssueType matches want by id or name, or takes the first non-subtask
// type when want is empty.
func pickIssueType(types []jira.IssueType, want string) (jira.IssueType, bool) {
	for _, t := range types {
		if want == "" && !t.Subtask {
			return t, true
		}
		if want != "" && (t.ID == want || strings.EqualFold(t.Name, want)) {
			return t, true
		}
	}
	return jira.IssueType{}, false
}
