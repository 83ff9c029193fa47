package usecase

import (
	"context"
	"fmt"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

// collectionDetacher removes a collection request from the routes referencing it.
type collectionDetacher interface {
	DetachCollection(ctx context.Context, collectionID string) ([]model.Route, error)
}

// NewRouteJanitor builds a new RouteJanitor.
func NewRouteJanitor(detacher collectionDetacher) *RouteJanitor {
	return &RouteJanitor{detacher: detacher}
}

// RouteJanitor reacts to collection-request events and keeps routes free of cancelled requests.
type RouteJanitor struct {
	detacher collectionDetacher
}

// Handle implements ports.RequestEventHandler.
func (j *RouteJanitor) Handle(ctx context.Context, event model.RequestEvent) error {
	// only the transition into cancelled matters; redeliveries of an already-cancelled state are ignored
	if event.After == nil || event.After.Status != model.RequestCancelled {
		return nil
	}
	if event.Before != nil && event.Before.Status == model.RequestCancelled {
		return nil
	}

	if _, err := j.detacher.DetachCollection(ctx, event.After.ID); err != nil {
		return fmt.Errorf("error detaching request [%s] from routes (event [%s]): %w", event.After.ID, event.ID, err)
	}
	return nil
}
