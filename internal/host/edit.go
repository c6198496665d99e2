package host

import (
	"context"
	"sort"

	"github.com/jbeckham/jira-issue-editor/internal/adf"
	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/jira"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

func (h *Host) editIssue(ctx context.Context, m protocol.EditIssue) {
	h.emit(protocol.LoadingStart{FieldKey: m.FieldKey})
	defer h.emit(protocol.LoadingEnd{FieldKey: m.FieldKey})

	payload := h.toServer(m.FieldValues)
	transitioned := false
	if v, ok := payload["status"]; ok {
		delete(payload, "status")
		id := transitionID(v)
		if id != "" {
			if err := h.api.TransitionIssue(ctx, m.IssueKey, id); err != nil {
				h.editFailed(ctx, m, err)
				return
			}
			transitioned = true
		}
	}

	if len(payload) > 0 {
		if err := h.api.UpdateIssue(ctx, m.IssueKey, payload); err != nil {
			h.editFailed(ctx, m, err)
			return
		}
	}
	h.log.Info("updated issue", "issue", m.IssueKey, "fields", keys(m.FieldValues))

	if transitioned {
		// available transitions change with the status
		h.refresh(ctx, protocol.RefreshIssue{IssueKey: m.IssueKey})
		return
	}

	issue, err := h.api.GetIssue(ctx, m.IssueKey)
	if err != nil {
		h.log.Warn("refetching issue after edit failed", "issue", m.IssueKey, "error", err)
		h.emit(protocol.FieldValueUpdate{FieldKey: m.FieldKey, FieldValues: m.FieldValues})
		return
	}
	h.emit(protocol.FieldValueUpdate{FieldKey: m.FieldKey, FieldValues: pick(issue.Raw, keys(m.FieldValues))})
}

// editFailed reports err along with the server's current values for the
// edited fields and any field the server named, so optimistic values are
// reverted.
func (h *Host) editFailed(ctx context.Context, m protocol.EditIssue, err error) {
	h.log.Error("editing issue failed", "issue", m.IssueKey, "field", m.FieldKey, "error", err)

	names := keys(m.FieldValues)
	if e, ok := jira.AsAPIError(err); ok {
		names = append(names, e.FieldKeys()...)
	}
	var values map[string]any
	if issue, ferr := h.api.GetIssue(ctx, m.IssueKey); ferr == nil {
		values = pick(issue.Raw, names)
	} else {
		h.log.Warn("refetching issue after failed edit", "issue", m.IssueKey, "error", ferr)
	}
	h.fail(reasonOf(err), values, "")
}

func (h *Host) createIssue(ctx context.Context, m protocol.CreateIssue) {
	h.emit(protocol.LoadingStart{})
	defer h.emit(protocol.LoadingEnd{})

	payload := h.toServer(m.FieldValues)
	if _, ok := payload["project"]; !ok && m.ProjectKey != "" {
		payload["project"] = map[string]any{"key": m.ProjectKey}
	}
	if _, ok := payload["issuetype"]; !ok && m.IssueTypeID != "" {
		payload["issuetype"] = map[string]any{"id": m.IssueTypeID}
	}

	resp, err := h.api.CreateIssue(ctx, jira.CreateIssueRequest{Fields: payload})
	if err != nil {
		h.log.Error("creating issue failed", "project", m.ProjectKey, "error", err)
		h.fail(reasonOf(err), nil, "")
		return
	}
	h.log.Info("created issue", "issue", resp.Key)

	if wl := m.Worklog; wl != nil {
		entry := jira.Worklog{TimeSpent: wl.TimeSpent, Started: wl.Started}
		if doc := adf.Document(wl.Comment); doc != nil {
			entry.Comment = doc
		}
		if err := h.api.AddWorklog(ctx, resp.Key, entry, wl.NewEstimate); err != nil {
			h.log.Error("logging work failed", "issue", resp.Key, "error", err)
			h.fail("Created "+resp.Key+" but logging work failed: "+reasonOf(err), nil, "")
		}
	}
	h.emit(protocol.IssueCreated{Key: resp.Key})
}

func (h *Host) addComment(ctx context.Context, m protocol.AddComment) {
	h.emit(protocol.LoadingStart{FieldKey: "comment"})
	defer h.emit(protocol.LoadingEnd{FieldKey: "comment"})

	doc := adf.Document(m.Body)
	if doc == nil {
		return
	}
	if _, err := h.api.AddComment(ctx, m.IssueKey, doc); err != nil {
		h.log.Error("adding comment failed", "issue", m.IssueKey, "error", err)
		h.fail(reasonOf(err), nil, "")
		return
	}
	comments, err := h.api.GetComments(ctx, m.IssueKey)
	if err != nil {
		h.log.Warn("reloading comments failed", "issue", m.IssueKey, "error", err)
		return
	}
	h.emit(protocol.FieldValueUpdate{
		FieldKey:    "comment",
		FieldValues: map[string]any{"comment": commentsPage(comments)},
	})
}

// toServer converts editor values to Jira's representation: multiline text
// fields take ADF documents.
func (h *Host) toServer(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			if f, ok := h.field(k); ok && f.Multiline {
				if doc := adf.Document(s); doc != nil {
					out[k] = doc
				} else {
					out[k] = nil
				}
				continue
			}
		}
		out[k] = v
	}
	return out
}

func transitionID(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return fields.StringOf(t["id"])
	case string:
		return t
	}
	return ""
}

func commentsPage(comments []jira.Comment) map[string]any {
	list := make([]any, 0, len(comments))
	for _, c := range comments {
		entry := map[string]any{
			"id":      c.ID,
			"created": c.Created,
			"body":    c.Body,
		}
		if c.Author != nil {
			entry["author"] = map[string]any{"displayName": c.Author.DisplayName, "accountId": c.Author.AccountID}
		}
		list = append(list, entry)
	}
	return map[string]any{"comments": list, "total": float64(len(list))}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func pick(src map[string]any, names []string) map[string]any {
	out := make(map[string]any, len(names))
	for _, k := range names {
		out[k] = src[k]
	}
	return out
}
