package interfaces

import (
	"context"

	"persona-chat/internal/service"
)

// ChatService defines the contract the API layer depends on. Depending on
// the interface instead of the concrete service keeps the handler testable
// with a mock.
type ChatService interface {
	Exchange(ctx context.Context, req *service.ExchangeRequest) (*service.ExchangeResponse, error)
}
