package ports

import (
	"context"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

// RequestEventSender is the port for publishing collection-request changes.
type RequestEventSender interface {
	// SendRequestEvent sends request-event data.
	SendRequestEvent(ctx context.Context, event model.RequestEvent) error
}

// RouteEventSender is the port for publishing route changes.
type RouteEventSender interface {
	// SendRouteEvent sends route-event data.
	SendRouteEvent(ctx context.Context, event model.RouteEvent) error
}
