// Package host is the editor's peer on the message channel. It executes
// requests against Jira on goroutines and reports back only through the
// emit callback, never touching editor state directly.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/jira"
	"github.com/jbeckham/jira-issue-editor/internal/logging"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
)

// JiraAPI is the subset of the Jira client the host uses.
type JiraAPI interface {
	BaseURL() string
	BrowseURL(issueKey string) string
	GetIssue(ctx context.Context, issueKeyOrID string) (*jira.Issue, error)
	GetEditMeta(ctx context.Context, issueKeyOrID string) (*jira.EditMeta, error)
	GetCreateIssueTypes(ctx context.Context, projectKey string) ([]jira.IssueType, error)
	GetCreateMeta(ctx context.Context, projectKey, issueTypeID string) ([]jira.FieldMeta, error)
	GetTransitions(ctx context.Context, issueKeyOrID string) ([]jira.Transition, error)
	TransitionIssue(ctx context.Context, issueKeyOrID, transitionID string) error
	GetComments(ctx context.Context, issueKeyOrID string) ([]jira.Comment, error)
	AddComment(ctx context.Context, issueKeyOrID string, body map[string]any) (*jira.Comment, error)
	UpdateIssue(ctx context.Context, issueKeyOrID string, fields map[string]any) error
	CreateIssue(ctx context.Context, req jira.CreateIssueRequest) (*jira.CreateIssueResponse, error)
	AddWorklog(ctx context.Context, issueKeyOrID string, wl jira.Worklog, newEstimate string) error
	IssuePicker(ctx context.Context, pickerURL, query string) ([]jira.PickerIssue, error)
	AutoComplete(ctx context.Context, autoCompleteURL, query string) ([]map[string]any, error)
	CreateOption(ctx context.Context, createURL string, createData map[string]any) (map[string]any, error)
}

// Options configures a Host.
type Options struct {
	FeatureFlags map[string]bool
	Settings     map[string]any
	// Users seeds user pickers that have no autocomplete endpoint.
	Users     []jira.User
	Clipboard func(string) error
	Logger    *slog.Logger
}

// Host serves editor requests.
type Host struct {
	api  JiraAPI
	emit func(protocol.Message)
	opts Options
	log  *slog.Logger
	site protocol.Site

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	fields map[string]fields.Descriptor
}

// New creates a Host that reports through emit. emit may be called from
// any goroutine.
func New(api JiraAPI, emit func(protocol.Message), opts Options) *Host {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Host{
		api:    api,
		emit:   emit,
		opts:   opts,
		log:    logger,
		site:   protocol.Site{BaseURL: api.BaseURL()},
		ctx:    ctx,
		cancel: cancel,
		fields: make(map[string]fields.Descriptor),
	}
}

// Site returns the Jira instance this host talks to.
func (h *Host) Site() protocol.Site {
	return h.site
}

// Start pushes the session-wide settings the editor needs before any form
// is loaded.
func (h *Host) Start() {
	flags := h.opts.FeatureFlags
	if flags == nil {
		flags = map[string]bool{}
	}
	h.emit(protocol.UpdateFeatureFlags{FeatureFlags: flags})
	h.emit(protocol.AdditionalSettings{Settings: h.opts.Settings})
	h.emit(protocol.PMFStatus{ShowPMF: false})
}

// Post accepts a message from the editor. Work runs asynchronously; the
// result arrives through emit.
func (h *Host) Post(msg protocol.Message) error {
	var run func(context.Context)
	switch m := msg.(type) {
	case protocol.RefreshIssue:
		run = func(ctx context.Context) { h.refresh(ctx, m) }
	case protocol.EditIssue:
		run = func(ctx context.Context) { h.editIssue(ctx, m) }
	case protocol.CreateIssue:
		run = func(ctx context.Context) { h.createIssue(ctx, m) }
	case protocol.AddComment:
		run = func(ctx context.Context) { h.addComment(ctx, m) }
	case protocol.FetchIssues:
		run = func(ctx context.Context) { h.fetchIssues(ctx, m) }
	case protocol.FetchSelectOptions:
		run = func(ctx context.Context) { h.fetchSelectOptions(ctx, m) }
	case protocol.CreateOption:
		run = func(ctx context.Context) { h.createOption(ctx, m) }
	case protocol.OpenJiraIssue:
		run = func(context.Context) { h.openIssue(m) }
	default:
		return fmt.Errorf("host: unsupported message %s", msg.MessageType())
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return protocol.ErrClosed
	}
	h.wg.Add(1)
	h.mu.Unlock()

	h.log.Debug("host received", "type", msg.MessageType())
	go func() {
		defer h.wg.Done()
		run(h.ctx)
	}()
	return nil
}

// Close stops accepting messages, cancels in-flight work and waits for it
// to finish.
func (h *Host) Close() {
	h.stopIntake()
	h.cancel()
	h.wg.Wait()
}

// Shutdown stops accepting messages and lets in-flight work finish until
// ctx is done; whatever is still running then is cancelled.
func (h *Host) Shutdown(ctx context.Context) {
	h.stopIntake()
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.log.Warn("cancelling unfinished host work")
	}
	h.cancel()
	<-done
}

func (h *Host) stopIntake() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *Host) setFields(fs []fields.Descriptor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields = make(map[string]fields.Descriptor, len(fs))
	for _, f := range fs {
		h.fields[f.Key] = f
	}
}

func (h *Host) field(key string) (fields.Descriptor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.fields[key]
	return f, ok
}

func (h *Host) fail(reason string, values map[string]any, nonce string) {
	h.emit(protocol.Error{Reason: reason, FieldValues: values, Nonce: nonce})
}

func reasonOf(err error) string {
	if apiErr, ok := jira.AsAPIError(err); ok {
		if r := apiErr.Reason(); r != "" {
			return r
		}
	}
	return err.Error()
}
