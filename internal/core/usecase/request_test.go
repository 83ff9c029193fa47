package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestFixture struct {
	store     *memStore
	sender    *MockRequestSender
	service   *RequestService
	resident  model.User
	collector model.User
	admin     model.User
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	store := newMemStore()
	sender := &MockRequestSender{}
	return &requestFixture{
		store:  store,
		sender: sender,
		service: NewRequestService(RequestServiceArgs{Requests: store, Users: store, Sender: sender},
			WithRequestNowFunc(func() time.Time { return fixedNow })),
		resident:  store.seedUser(t, "resident1", model.RoleResident),
		collector: store.seedUser(t, "collector1", model.RoleCollector),
		admin:     store.seedUser(t, "admin1", model.RoleAdmin),
	}
}

func TestRequestService_CreateRequest(t *testing.T) {
	tests := []struct {
		name        string
		args        func(f *requestFixture) model.CreateRequestArgs
		expectedErr error
	}{
		{
			name: "resident files a request",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: f.resident.ID, WasteType: model.WasteOrganic, PickupLocation: model.PickupLocation{Address: " 1 Main St "}}
			},
		},
		{
			name: "admin files a request",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: f.admin.ID, WasteType: model.WasteHazardous, PickupLocation: model.PickupLocation{Address: "Depot"}}
			},
		},
		{
			name: "collector may not file requests",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: f.collector.ID, WasteType: model.WasteGeneral, PickupLocation: model.PickupLocation{Address: "x"}}
			},
			expectedErr: model.ErrForbidden,
		},
		{
			name: "unknown waste type",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: f.resident.ID, WasteType: "nuclear", PickupLocation: model.PickupLocation{Address: "x"}}
			},
			expectedErr: model.ErrInvalidArgument,
		},
		{
			name: "blank address",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: f.resident.ID, WasteType: model.WasteGeneral, PickupLocation: model.PickupLocation{Address: "   "}}
			},
			expectedErr: model.ErrInvalidArgument,
		},
		{
			name: "unknown requester",
			args: func(f *requestFixture) model.CreateRequestArgs {
				return model.CreateRequestArgs{RequesterID: "ghost", WasteType: model.WasteGeneral, PickupLocation: model.PickupLocation{Address: "x"}}
			},
			expectedErr: model.ErrNotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newRequestFixture(t)
			request, err := f.service.CreateRequest(context.Background(), test.args(f))
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				require.Empty(t, f.store.requests)
				require.Empty(t, f.sender.events)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, request.ID)
			require.Equal(t, model.RequestPending, request.Status)
			require.Equal(t, strings.TrimSpace(request.PickupLocation.Address), request.PickupLocation.Address)
			require.Len(t, f.sender.events, 1)
			require.Nil(t, f.sender.events[0].Before)
			require.Equal(t, model.RequestPending, f.sender.events[0].After.Status)
		})
	}
}

func TestRequestService_AssignRequest(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	request, err := f.service.CreateRequest(ctx, model.CreateRequestArgs{RequesterID: f.resident.ID, WasteType: model.WasteRecyclable, PickupLocation: model.PickupLocation{Address: "1 Main St"}})
	require.NoError(t, err)

	_, err = f.service.AssignRequest(ctx, model.AssignRequestArgs{RequestID: request.ID, CollectorID: f.resident.ID})
	require.ErrorIs(t, err, model.ErrInvalidCollector)

	_, err = f.service.AssignRequest(ctx, model.AssignRequestArgs{RequestID: request.ID, CollectorID: "ghost"})
	require.ErrorIs(t, err, model.ErrInvalidCollector)

	_, err = f.service.AssignRequest(ctx, model.AssignRequestArgs{RequestID: "missing", CollectorID: f.collector.ID})
	require.ErrorIs(t, err, model.ErrNotFound)

	assigned, err := f.service.AssignRequest(ctx, model.AssignRequestArgs{RequestID: request.ID, CollectorID: f.collector.ID, ScheduledDate: today})
	require.NoError(t, err)
	require.Equal(t, model.RequestAssigned, assigned.Status)
	require.Equal(t, f.collector.ID, assigned.AssignedCollectorID)

	stored, err := f.store.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, model.RequestAssigned, stored.Status)

	last := f.sender.events[len(f.sender.events)-1]
	require.Equal(t, model.RequestPending, last.Before.Status)
	require.Equal(t, model.RequestAssigned, last.After.Status)
}

func TestRequestService_UpdateRequestStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      model.RequestStatus
		initial     model.RequestStatus
		actor       func(f *requestFixture) model.Actor
		expectedErr error
	}{
		{
			name:    "resident cancels own request",
			initial: model.RequestPending,
			status:  model.RequestCancelled,
			actor:   func(f *requestFixture) model.Actor { return model.Actor{UserID: f.resident.ID, Role: model.RoleResident} },
		},
		{
			name:        "resident cannot complete",
			initial:     model.RequestAssigned,
			status:      model.RequestInProgress,
			actor:       func(f *requestFixture) model.Actor { return model.Actor{UserID: f.resident.ID, Role: model.RoleResident} },
			expectedErr: model.ErrForbidden,
		},
		{
			name:        "another resident cannot cancel",
			initial:     model.RequestPending,
			status:      model.RequestCancelled,
			actor:       func(f *requestFixture) model.Actor { return model.Actor{UserID: "someone-else", Role: model.RoleResident} },
			expectedErr: model.ErrForbidden,
		},
		{
			name:    "assigned collector starts the pickup",
			initial: model.RequestAssigned,
			status:  model.RequestInProgress,
			actor:   func(f *requestFixture) model.Actor { return model.Actor{UserID: f.collector.ID, Role: model.RoleCollector} },
		},
		{
			name:    "assigned collector completes the pickup",
			initial: model.RequestInProgress,
			status:  model.RequestCompleted,
			actor:   func(f *requestFixture) model.Actor { return model.Actor{UserID: f.collector.ID, Role: model.RoleCollector} },
		},
		{
			name:        "collector cannot cancel",
			initial:     model.RequestAssigned,
			status:      model.RequestCancelled,
			actor:       func(f *requestFixture) model.Actor { return model.Actor{UserID: f.collector.ID, Role: model.RoleCollector} },
			expectedErr: model.ErrForbidden,
		},
		{
			name:        "admin still bound by the lifecycle",
			initial:     model.RequestCompleted,
			status:      model.RequestPending,
			actor:       func(f *requestFixture) model.Actor { return model.Actor{UserID: f.admin.ID, Role: model.RoleAdmin} },
			expectedErr: model.ErrInvalidTransition,
		},
		{
			name:        "unknown status",
			initial:     model.RequestPending,
			status:      "lost",
			actor:       func(f *requestFixture) model.Actor { return model.Actor{UserID: f.admin.ID, Role: model.RoleAdmin} },
			expectedErr: model.ErrInvalidArgument,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newRequestFixture(t)
			ctx := context.Background()
			request := model.CollectionRequest{
				RequesterID:         f.resident.ID,
				AssignedCollectorID: f.collector.ID,
				WasteType:           model.WasteGeneral,
				Status:              test.initial,
				PickupLocation:      model.PickupLocation{Address: "x"},
			}
			require.NoError(t, f.store.SaveRequest(ctx, &request))

			updated, err := f.service.UpdateRequestStatus(ctx, model.UpdateRequestStatusArgs{RequestID: request.ID, Status: test.status, Actor: test.actor(f)})
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				stored, err := f.store.GetRequest(ctx, request.ID)
				require.NoError(t, err)
				require.Equal(t, test.initial, stored.Status)
				require.Empty(t, f.sender.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.status, updated.Status)
			require.Len(t, f.sender.events, 1)
			require.Equal(t, test.initial, f.sender.events[0].Before.Status)
			if test.status == model.RequestCompleted {
				require.Equal(t, fixedNow, updated.CompletedDate)
			}
		})
	}
}

func TestRequestService_ListRequests(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	other := f.store.seedUser(t, "resident2", model.RoleResident)
	for _, requester := range []string{f.resident.ID, f.resident.ID, other.ID} {
		_, err := f.service.CreateRequest(ctx, model.CreateRequestArgs{RequesterID: requester, WasteType: model.WasteGeneral, PickupLocation: model.PickupLocation{Address: "x"}})
		require.NoError(t, err)
	}

	mine, err := f.service.ListRequests(ctx, model.ListRequestsArgs{RequesterID: f.resident.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	all, err := f.service.ListRequests(ctx, model.ListRequestsArgs{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = f.service.GetRequest(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}
