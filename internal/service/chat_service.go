package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	app_errors "persona-chat/internal/errors"
	"persona-chat/internal/llm"
	"persona-chat/internal/model"
	"persona-chat/internal/persona"
	"persona-chat/internal/retry"
)

// fallbackRetryAfter is advertised to the caller when the upstream keeps
// rate limiting us without sending a Retry-After header.
const fallbackRetryAfter = 60 * time.Second

// ExchangeRequest is a single chat turn submitted by the client. The
// conversation must not already contain the new message; the relay appends it.
type ExchangeRequest struct {
	Message      string       `json:"message" validate:"required"`
	Conversation []model.Turn `json:"conversation"`
	UserName     string       `json:"userName"`
}

// ExchangeResponse echoes the full transcript including the new user and
// assistant turns, so the client can carry it into the next request.
type ExchangeResponse struct {
	Reply        string       `json:"reply"`
	Conversation []model.Turn `json:"conversation"`
}

// RateLimitedError is returned once the retry budget for upstream 429s is
// exhausted. RetryAfter is advisory: the upstream's own value when it sent
// one, otherwise a fixed fallback.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("upstream rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return app_errors.ErrRateLimited }

// Generation bundles the fixed upstream call parameters the relay applies
// to every completion request.
type Generation struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatService is the relay's core: it enforces the persona system turn on
// every outbound transcript and shields the upstream credential from the
// client. It holds no per-request state.
type ChatService struct {
	provider      llm.Provider
	persona       persona.Profile
	policy        retry.Policy
	gen           Generation
	hasCredential bool
}

func NewChatService(provider llm.Provider, profile persona.Profile, policy retry.Policy, gen Generation, hasCredential bool) *ChatService {
	return &ChatService{
		provider:      provider,
		persona:       profile,
		policy:        policy,
		gen:           gen,
		hasCredential: hasCredential,
	}
}

// Exchange processes one chat turn: persona injection, upstream completion
// with bounded retry on rate limits and transport failures, and transcript
// echo. It issues at most policy.Attempts() upstream calls.
func (s *ChatService) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message must not be empty", app_errors.ErrValidation)
	}
	if !s.hasCredential {
		// Fail fast: no upstream attempt without a credential.
		return nil, app_errors.ErrNoCredential
	}

	transcript := slices.Clone(req.Conversation)
	if !model.HasSystemHead(transcript) {
		transcript = append([]model.Turn{s.persona.SystemTurn(req.UserName)}, transcript...)
	}
	transcript = append(transcript, model.UserTurn(req.Message))

	messages := make([]llm.Message, len(transcript))
	for i, turn := range transcript {
		messages[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	llmReq := &llm.CompletionRequest{
		Model:       s.gen.Model,
		Messages:    messages,
		MaxTokens:   s.gen.MaxTokens,
		Temperature: s.gen.Temperature,
	}

	var reply string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var cerr error
		reply, cerr = s.provider.Complete(ctx, llmReq)
		return cerr
	}, retryableUpstream)
	if err != nil {
		return nil, s.classify(err)
	}

	return &ExchangeResponse{
		Reply:        reply,
		Conversation: append(transcript, model.AssistantTurn(reply)),
	}, nil
}

// retryableUpstream decides which upstream failures are worth another
// attempt: rate limits and transport-level errors. Every other failure,
// including non-429 statuses and malformed replies, is permanent.
func retryableUpstream(err error) bool {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.IsRateLimit()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// classify maps the final upstream failure to the service's error taxonomy.
func (s *ChatService) classify(err error) error {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.IsRateLimit() {
			retryAfter := statusErr.RetryAfter
			if retryAfter <= 0 {
				retryAfter = fallbackRetryAfter
			}
			slog.Warn("Upstream still rate limited after exhausting retries", "retry_after", retryAfter)
			return &RateLimitedError{RetryAfter: retryAfter}
		}
		// Forwarded as-is so the API layer can mirror the upstream status.
		return statusErr
	}
	if errors.Is(err, app_errors.ErrEmptyReply) || errors.Is(err, app_errors.ErrUpstream) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", app_errors.ErrUpstream, err)
	}
	return fmt.Errorf("%w: %v", app_errors.ErrInternal, err)
}
