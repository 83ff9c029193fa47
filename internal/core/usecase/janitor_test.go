package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/stretchr/testify/require"
)

// MockDetacher records the detached collection ids.
type MockDetacher struct {
	detached    []string
	DetachError error
}

func (m *MockDetacher) DetachCollection(_ context.Context, collectionID string) ([]model.Route, error) {
	m.detached = append(m.detached, collectionID)
	return nil, m.DetachError
}

func TestRouteJanitor_Handle(t *testing.T) {
	tests := []struct {
		name             string
		event            model.RequestEvent
		detachErr        error
		expectedDetached []string
		expectError      bool
	}{
		{
			name: "cancellation detaches the request",
			event: model.RequestEvent{
				ID:     "e1",
				Before: &model.CollectionRequest{ID: "q1", Status: model.RequestAssigned},
				After:  &model.CollectionRequest{ID: "q1", Status: model.RequestCancelled},
			},
			expectedDetached: []string{"q1"},
		},
		{
			name: "creation is ignored",
			event: model.RequestEvent{
				ID:    "e2",
				After: &model.CollectionRequest{ID: "q1", Status: model.RequestPending},
			},
		},
		{
			name: "other transitions are ignored",
			event: model.RequestEvent{
				ID:     "e3",
				Before: &model.CollectionRequest{ID: "q1", Status: model.RequestAssigned},
				After:  &model.CollectionRequest{ID: "q1", Status: model.RequestInProgress},
			},
		},
		{
			name: "already cancelled is ignored",
			event: model.RequestEvent{
				ID:     "e4",
				Before: &model.CollectionRequest{ID: "q1", Status: model.RequestCancelled},
				After:  &model.CollectionRequest{ID: "q1", Status: model.RequestCancelled},
			},
		},
		{
			name:  "empty event is ignored",
			event: model.RequestEvent{ID: "e5"},
		},
		{
			name: "detach failure is returned",
			event: model.RequestEvent{
				ID:     "e6",
				Before: &model.CollectionRequest{ID: "q2", Status: model.RequestPending},
				After:  &model.CollectionRequest{ID: "q2", Status: model.RequestCancelled},
			},
			detachErr:        model.ErrPersistence,
			expectedDetached: []string{"q2"},
			expectError:      true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			detacher := &MockDetacher{DetachError: test.detachErr}
			err := NewRouteJanitor(detacher).Handle(context.Background(), test.event)
			if test.expectError {
				require.True(t, errors.Is(err, test.detachErr))
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, test.expectedDetached, detacher.detached)
		})
	}
}

func TestRouteJanitor_WithRouteService(t *testing.T) {
	f := newRouteFixture(t)
	ctx := context.Background()
	request := f.store.seedRequest(t, "A", model.RequestAssigned)
	route, err := f.service.CreateRoute(ctx, model.CreateRouteArgs{CollectorID: f.collector.ID, Date: today, Collections: []string{request.ID}})
	require.NoError(t, err)

	cancelled := request
	cancelled.Status = model.RequestCancelled
	err = NewRouteJanitor(f.service).Handle(ctx, model.RequestEvent{ID: "e1", Before: &request, After: &cancelled})
	require.NoError(t, err)

	stored, err := f.store.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Collections)
	require.Empty(t, stored.OptimizedOrder)
}
