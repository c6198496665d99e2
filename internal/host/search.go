package host

import (
	"context"
	"strings"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

func (h *Host) fetchIssues(ctx context.Context, m protocol.FetchIssues) {
	found, err := h.api.IssuePicker(ctx, m.AutoCompleteURL, m.Query)
	if err != nil {
		h.log.Warn("issue search failed", "query", m.Query, "error", err)
		h.fail(reasonOf(err), nil, m.Nonce)
		return
	}
	issues := make([]fields.IssueSuggestion, 0, len(found))
	for _, i := range found {
		issues = append(issues, fields.IssueSuggestion{
			Img:         i.Img,
			Key:         i.Key,
			KeyHTML:     i.KeyHTML,
			Summary:     i.Summary,
			SummaryText: i.SummaryText,
		})
	}
	h.emit(protocol.IssueSuggestionsList{Issues: issues, Nonce: m.Nonce})
}

func (h *Host) fetchSelectOptions(ctx context.Context, m protocol.FetchSelectOptions) {
	if m.AutoCompleteURL == "" {
		h.emit(protocol.SelectOptionsList{Options: h.cachedUsers(m.Query), Nonce: m.Nonce})
		return
	}
	opts, err := h.api.AutoComplete(ctx, m.AutoCompleteURL, m.Query)
	if err != nil {
		h.log.Warn("autocomplete failed", "field", m.FieldKey, "query", m.Query, "error", err)
		h.fail(reasonOf(err), nil, m.Nonce)
		return
	}
	if opts == nil {
		opts = []map[string]any{}
	}
	h.emit(protocol.SelectOptionsList{Options: opts, Nonce: m.Nonce})
}

// cachedUsers filters the startup user list by display name or email.
func (h *Host) cachedUsers(query string) []map[string]any {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []map[string]any{}
	for _, u := range h.opts.Users {
		if q != "" && !strings.Contains(strings.ToLower(u.DisplayName), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		entry := map[string]any{"accountId": u.AccountID, "displayName": u.DisplayName}
		if avatar := u.AvatarURLs["24x24"]; avatar != "" {
			entry["avatarUrls"] = map[string]any{"24x24": avatar}
		}
		out = append(out, entry)
	}
	return out
}

func (h *Host) createOption(ctx context.Context, m protocol.CreateOption) {
	created, err := h.api.CreateOption(ctx, m.CreateURL, m.CreateData)
	if err != nil {
		h.log.Error("creating option failed", "field", m.FieldKey, "error", err)
		h.fail(reasonOf(err), nil, m.Nonce)
		return
	}
	h.log.Info("created option", "field", m.FieldKey, "option", fields.DisplayString(created))
	h.emit(protocol.OptionCreated{
		FieldKey:           m.FieldKey,
		FieldValues:        map[string]any{m.FieldKey: created},
		SelectFieldOptions: map[string][]map[string]any{m.FieldKey: {created}},
		Nonce:              m.Nonce,
	})
}

func (h *Host) openIssue(m protocol.OpenJiraIssue) {
	url := h.api.BrowseURL(m.IssueOrKey)
	h.log.Info("opening issue", "issue", m.IssueOrKey, "url", url)
	if h.opts.Clipboard == nil {
		return
	}
	if err := h.opts.Clipboard(url); err != nil {
		h.log.Warn("copying issue url failed", "error", err)
	}
}
