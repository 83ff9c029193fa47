package ports

import (
	"context"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

// RequestEventHandler handles incoming RequestEvents.
type RequestEventHandler interface {
	// Handle will receive an incoming request event and handle it.
	Handle(ctx context.Context, event model.RequestEvent) error
}
