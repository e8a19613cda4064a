package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"persona-chat/internal/api"
	"persona-chat/internal/model"
	"persona-chat/internal/service"
)

func setupRouter() (http.Handler, *mockChatService) {
	handler, mockSvc := setupChatHandler()
	router := api.NewRouter(handler, []string{"https://danielweber.dev"})
	return router, mockSvc
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router, _ := setupRouter()

	for _, path := range []string{"/health", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "path %s", path)
		assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	}
}

func TestRouter_CORS(t *testing.T) {
	t.Run("AllowedOrigin", func(t *testing.T) {
		router, mockSvc := setupRouter()
		mockSvc.On("Exchange", mock.Anything, mock.Anything).
			Return(&service.ExchangeResponse{Reply: "hi", Conversation: []model.Turn{}}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", "https://danielweber.dev")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "https://danielweber.dev", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("DisallowedOriginRejectedBeforeHandler", func(t *testing.T) {
		router, mockSvc := setupRouter()

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockSvc.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	})

	t.Run("Preflight", func(t *testing.T) {
		router, _ := setupRouter()

		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", "https://danielweber.dev")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("NoOriginHeaderPassesThrough", func(t *testing.T) {
		router, _ := setupRouter()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
