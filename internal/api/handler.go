package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	app_errors "persona-chat/internal/errors"
	"persona-chat/internal/interfaces"
	"persona-chat/internal/service"
)

type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// HandleChat processes POST /chat: decode, validate, exchange, respond.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request body", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	resp, err := h.service.Exchange(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// HandleHealth serves the liveness probe mounted on GET /health and GET /.
func (h *ChatHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok", Service: "persona-chat"})
}
