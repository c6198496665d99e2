package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/logging"
)

// DefaultTimeout bounds every correlated request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when no reply arrives within the timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrClosed is returned for requests made on, or pending at, Close.
	ErrClosed = errors.New("requester closed")
)

// RemoteError is an Error reply to a correlated request.
type RemoteError struct {
	Reason string
}

func (e *RemoteError) Error() string { return e.Reason }

// PostFunc hands a message to the host.
type PostFunc func(Message) error

// NewNonce returns a fresh correlation token.
func NewNonce() string {
	return uuid.NewString()
}

// Requester pairs outbound requests with their replies by nonce. Replies
// that arrive after their request gave up are dropped.
type Requester struct {
	post    PostFunc
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]chan Message
	closed  bool
}

// NewRequester creates a Requester. A non-positive timeout means DefaultTimeout.
func NewRequester(post PostFunc, timeout time.Duration, logger *slog.Logger) *Requester {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Requester{
		post:    post,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]chan Message),
	}
}

// Request posts msg and waits for the reply carrying the same nonce.
func (r *Requester) Request(ctx context.Context, msg Correlated) (Message, error) {
	nonce := msg.CorrelationID()
	if nonce == "" {
		return nil, fmt.Errorf("%s: missing nonce", msg.MessageType())
	}

	ch := make(chan Message, 1)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.pending[nonce] = ch
	r.mu.Unlock()
	defer r.forget(nonce)

	if err := r.post(msg); err != nil {
		return nil, fmt.Errorf("posting %s: %w", msg.MessageType(), err)
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("%s %s: %w", msg.MessageType(), nonce, ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver routes a reply to its waiting request. It reports false for
// messages that are not correlated or whose request is no longer waiting,
// so the caller can treat them as pushes.
func (r *Requester) Deliver(msg Message) bool {
	c, ok := msg.(Correlated)
	if !ok || c.CorrelationID() == "" {
		return false
	}
	r.mu.Lock()
	ch, ok := r.pending[c.CorrelationID()]
	if ok {
		delete(r.pending, c.CorrelationID())
	}
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("dropping uncorrelated reply", "type", msg.MessageType(), "nonce", c.CorrelationID())
		return false
	}
	ch <- msg
	return true
}

// Close fails every pending request with ErrClosed and rejects new ones.
func (r *Requester) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for nonce, ch := range r.pending {
		close(ch)
		delete(r.pending, nonce)
	}
}

func (r *Requester) forget(nonce string) {
	r.mu.Lock()
	delete(r.pending, nonce)
	r.mu.Unlock()
}

// FetchIssues searches issues for an issue-link widget. Any failure,
// including timeout, yields an empty list.
func (r *Requester) FetchIssues(ctx context.Context, req FetchIssues) []fields.IssueSuggestion {
	if req.Nonce == "" {
		req.Nonce = NewNonce()
	}
	reply, err := r.Request(ctx, req)
	if err != nil {
		r.logger.Warn("fetching issues failed", "query", req.Query, "error", err)
		return []fields.IssueSuggestion{}
	}
	list, ok := reply.(IssueSuggestionsList)
	if !ok {
		r.logger.Warn("unexpected reply to fetchIssues", "type", reply.MessageType())
		return []fields.IssueSuggestion{}
	}
	if list.Issues == nil {
		return []fields.IssueSuggestion{}
	}
	return list.Issues
}

// FetchSelectOptions loads options from a field's autocomplete endpoint.
// Any failure, including timeout, yields an empty list.
func (r *Requester) FetchSelectOptions(ctx context.Context, req FetchSelectOptions) []fields.Option {
	if req.Nonce == "" {
		req.Nonce = NewNonce()
	}
	reply, err := r.Request(ctx, req)
	if err != nil {
		r.logger.Warn("fetching select options failed", "field", req.FieldKey, "query", req.Query, "error", err)
		return []fields.Option{}
	}
	list, ok := reply.(SelectOptionsList)
	if !ok {
		r.logger.Warn("unexpected reply to fetchSelectOptions", "field", req.FieldKey, "type", reply.MessageType())
		return []fields.Option{}
	}
	return fields.OptionsFromMaps(list.Options)
}

// CreateOption creates a new select option. Unlike the fetch helpers it
// reports failure so the caller can surface it.
func (r *Requester) CreateOption(ctx context.Context, req CreateOption) (OptionCreated, error) {
	if req.Nonce == "" {
		req.Nonce = NewNonce()
	}
	reply, err := r.Request(ctx, req)
	if err != nil {
		return OptionCreated{}, err
	}
	switch m := reply.(type) {
	case OptionCreated:
		return m, nil
	case Error:
		return OptionCreated{}, &RemoteError{Reason: m.Reason}
	}
	return OptionCreated{}, fmt.Errorf("unexpected reply %s to createOption", reply.MessageType())
}

// OpenJiraIssue posts a fire-and-forget request to open an issue.
func (r *Requester) OpenJiraIssue(key string) error {
	return r.post(OpenJiraIssue{IssueOrKey: key, Nonce: NewNonce()})
}

// Post sends a non-correlated message.
func (r *Requester) Post(msg Message) error {
	return r.post(msg)
}
