package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "persona-chat/internal/errors"
)

// TestOpenRouterProvider exercises the HTTP client against a mock upstream
// built with httptest, so the request construction and response parsing are
// verified without any real network calls.
func TestOpenRouterProvider(t *testing.T) {
	ctx := context.Background()
	req := &CompletionRequest{
		Model:       "test-model",
		Messages:    []Message{{Role: "user", Content: "hello"}},
		MaxTokens:   128,
		Temperature: 0.5,
	}

	t.Run("Success", func(t *testing.T) {
		var capturedPath, capturedAuth, capturedReferer string
		var capturedBody CompletionRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedPath = r.URL.Path
			capturedAuth = r.Header.Get("Authorization")
			capturedReferer = r.Header.Get("HTTP-Referer")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))

			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
			assert.NoError(t, err)
		}))
		defer server.Close()

		provider := NewOpenRouterProvider(server.URL, "secret-key", "https://example.org", "test-app")
		reply, err := provider.Complete(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "hi there", reply)
		assert.Equal(t, "/chat/completions", capturedPath)
		assert.Equal(t, "Bearer secret-key", capturedAuth)
		assert.Equal(t, "https://example.org", capturedReferer)
		assert.Equal(t, "test-model", capturedBody.Model)
		assert.Equal(t, 128, capturedBody.MaxTokens)
	})

	t.Run("RateLimitedWithRetryAfter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "17")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
		}))
		defer server.Close()

		provider := NewOpenRouterProvider(server.URL, "secret-key", "", "")
		_, err := provider.Complete(ctx, req)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.True(t, statusErr.IsRateLimit())
		assert.Equal(t, 17*time.Second, statusErr.RetryAfter)
	})

	t.Run("UpstreamServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("overloaded"))
		}))
		defer server.Close()

		provider := NewOpenRouterProvider(server.URL, "secret-key", "", "")
		_, err := provider.Complete(ctx, req)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
		assert.False(t, statusErr.IsRateLimit())
		assert.Zero(t, statusErr.RetryAfter)
		assert.Contains(t, statusErr.Body, "overloaded")
	})

	t.Run("EmptyChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		provider := NewOpenRouterProvider(server.URL, "secret-key", "", "")
		_, err := provider.Complete(ctx, req)

		assert.True(t, errors.Is(err, app_errors.ErrEmptyReply))
	})

	t.Run("ErrorPayloadInOKResponse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
		}))
		defer server.Close()

		provider := NewOpenRouterProvider(server.URL, "secret-key", "", "")
		_, err := provider.Complete(ctx, req)

		assert.True(t, errors.Is(err, app_errors.ErrUpstream))
		assert.ErrorContains(t, err, "model not found")
	})
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("not-a-number"))
	assert.Zero(t, parseRetryAfter("-5"))
}
