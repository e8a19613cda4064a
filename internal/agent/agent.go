package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"persona-chat/internal/model"
	"persona-chat/internal/retry"
)

var (
	// ErrEmptyInput is returned for whitespace-only input: no turn is
	// appended and no network call is made.
	ErrEmptyInput = errors.New("message must not be empty")

	// ErrUnnamed is returned when a turn is submitted before the visitor
	// has introduced themselves.
	ErrUnnamed = errors.New("a name must be set before chatting")

	// ErrBusy is returned when a turn is submitted while another one is
	// still in flight. The agent is single-flight: one outstanding relay
	// call at a time.
	ErrBusy = errors.New("a previous message is still being processed")
)

// RelayError reports a non-success response from the relay. RetryAfter is
// only set on rate-limit responses.
type RelayError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay returned status %d: %s", e.Code, e.Message)
}

// chatRequest and chatResponse mirror the relay's wire contract. The
// conversation sent must not contain the new message; the relay appends it.
type chatRequest struct {
	Message      string       `json:"message"`
	Conversation []model.Turn `json:"conversation"`
	UserName     string       `json:"userName"`
}

type chatResponse struct {
	Reply        string       `json:"reply"`
	Conversation []model.Turn `json:"conversation"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details"`
	RetryAfter int    `json:"retryAfter"`
}

// Agent is the client side of the system: it owns the in-memory transcript
// for the session, gates chatting behind a visitor name, and submits turns
// to the relay with the shared backoff policy. The transcript is an explicit
// value owned by the agent, never shared state.
//
// The agent always starts Unnamed; a persisted name only pre-fills the
// prompt via LoadPersistedName.
type Agent struct {
	relayURL string
	client   *http.Client
	policy   retry.Policy
	store    ProfileStore
	session  string

	mu         sync.Mutex
	inFlight   bool
	name       string
	transcript []model.Turn
}

func New(relayURL string, store ProfileStore, policy retry.Policy) *Agent {
	return &Agent{
		relayURL: strings.TrimRight(relayURL, "/"),
		client:   &http.Client{},
		policy:   policy,
		store:    store,
		session:  uuid.NewString(),
	}
}

// LoadPersistedName returns the durably stored display name, if any. It does
// not transition the agent out of the Unnamed state; the visitor still has
// to submit a name each session.
func (a *Agent) LoadPersistedName(ctx context.Context) (string, error) {
	return a.store.LoadName(ctx)
}

// SetName transitions the agent from Unnamed to Named: it persists the name
// and invalidates the transcript's system head so the relay synthesizes a
// fresh persona turn embedding the new name on the next exchange. An empty
// name is rejected and causes no transition.
func (a *Agent) SetName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrEmptyInput)
	}
	if err := a.store.SaveName(ctx, name); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
	if model.HasSystemHead(a.transcript) {
		a.transcript = a.transcript[1:]
	}
	return nil
}

// ClearName re-enters the Unnamed state without clearing the persisted
// value, mirroring an explicit "change name" action.
func (a *Agent) ClearName() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = ""
}

// Named reports whether the visitor has introduced themselves this session.
func (a *Agent) Named() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name != ""
}

// Name returns the current session's display name.
func (a *Agent) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Transcript returns a copy of the current conversation transcript.
func (a *Agent) Transcript() []model.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Turn, len(a.transcript))
	copy(out, a.transcript)
	return out
}

// SubmitTurn sends one visitor message to the relay and returns the reply.
// Rate limits and network failures are retried with the shared backoff
// policy; any other relay failure surfaces immediately. On success the
// transcript advances to the relay's echo, which includes the new user and
// assistant turns. A failed turn leaves the transcript untouched, so no
// half-finished exchange ever lingers.
func (a *Agent) SubmitTurn(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	a.mu.Lock()
	if a.name == "" {
		a.mu.Unlock()
		return "", ErrUnnamed
	}
	if a.inFlight {
		a.mu.Unlock()
		return "", ErrBusy
	}
	a.inFlight = true
	// The request carries the transcript without the new message; the relay
	// appends it. Locally the user turn shows up right away.
	req := chatRequest{
		Message:      text,
		Conversation: append([]model.Turn(nil), a.transcript...),
		UserName:     a.name,
	}
	a.transcript = append(a.transcript, model.UserTurn(text))
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight = false
		a.mu.Unlock()
	}()

	var resp chatResponse
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		return a.post(ctx, &req, &resp)
	}, retryableRelay)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		// Roll the user turn back so a failed exchange leaves no residue.
		a.transcript = a.transcript[:len(a.transcript)-1]
		return "", err
	}
	a.transcript = resp.Conversation
	return resp.Reply, nil
}

// post performs a single POST /chat attempt against the relay.
func (a *Agent) post(ctx context.Context, req *chatRequest, out *chatResponse) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.relayURL+"/chat", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Session-ID", a.session)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		relayErr := &RelayError{Code: resp.StatusCode}
		var parsed errorResponse
		if jerr := json.Unmarshal(raw, &parsed); jerr == nil && parsed.Error != "" {
			relayErr.Message = parsed.Error
			relayErr.RetryAfter = time.Duration(parsed.RetryAfter) * time.Second
		} else {
			relayErr.Message = string(raw)
		}
		return relayErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("could not decode response: %s", string(raw))
	}
	return nil
}

// retryableRelay mirrors the relay's own classification: rate limits and
// transport failures get another attempt, everything else is permanent.
func retryableRelay(err error) bool {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Code == http.StatusTooManyRequests
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
