package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	app_errors "persona-chat/internal/errors"
)

// Provider defines the interface for obtaining a chat completion from an
// upstream model API.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// Message is the wire shape of a single transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body sent to the chat completions endpoint.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// completionResponse mirrors the OpenAI-compatible response shape used by
// OpenRouter. Only the fields we read are declared.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError reports a non-success HTTP status from the upstream API.
// RetryAfter carries the parsed Retry-After header on 429 responses, zero
// when the header is absent or unparseable.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// IsRateLimit reports whether the error is an upstream 429.
func (e *StatusError) IsRateLimit() bool {
	return e.Code == http.StatusTooManyRequests
}

type openRouterProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	referer string
	title   string
}

// NewOpenRouterProvider builds a Provider speaking the OpenRouter chat
// completions API. The referer and title are forwarded as the attribution
// headers OpenRouter asks integrations to send.
func NewOpenRouterProvider(baseURL, apiKey, referer, title string) Provider {
	return &openRouterProvider{
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  apiKey,
		referer: referer,
		title:   title,
	}
}

func (p *openRouterProvider) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.referer != "" {
		httpReq.Header.Set("HTTP-Referer", p.referer)
	}
	if p.title != "" {
		httpReq.Header.Set("X-Title", p.title)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			Code:       resp.StatusCode,
			Body:       string(raw),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("could not decode response: %s", string(raw))
	}
	if parsed.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", app_errors.ErrUpstream, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", app_errors.ErrEmptyReply
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseRetryAfter understands the delay-seconds form of the Retry-After
// header. The HTTP-date form is rare on completion APIs and is ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
