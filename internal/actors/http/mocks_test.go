package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

var errUnexpectedCall = errors.New("unexpected call")

type MockTokenVerifier struct {
	actors map[string]model.Actor
}

func (m *MockTokenVerifier) Verify(token string) (*model.Actor, error) {
	actor, ok := m.actors[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", model.ErrUnauthenticated)
	}
	return &actor, nil
}

type MockUsers struct {
	RegisterFunc     func(args model.RegisterUserArgs) (*model.User, error)
	AuthenticateFunc func(args model.AuthenticateArgs) (*model.AuthenticateResponse, error)
	GetUserFunc      func(id string) (*model.User, error)
	ListUsersFunc    func(args model.ListUsersArgs) ([]model.User, error)
}

func (m *MockUsers) Register(_ context.Context, args model.RegisterUserArgs) (*model.User, error) {
	if m.RegisterFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.RegisterFunc(args)
}

func (m *MockUsers) Authenticate(_ context.Context, args model.AuthenticateArgs) (*model.AuthenticateResponse, error) {
	if m.AuthenticateFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.AuthenticateFunc(args)
}

func (m *MockUsers) GetUser(_ context.Context, id string) (*model.User, error) {
	if m.GetUserFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.GetUserFunc(id)
}

func (m *MockUsers) ListUsers(_ context.Context, args model.ListUsersArgs) ([]model.User, error) {
	if m.ListUsersFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListUsersFunc(args)
}

type MockRequests struct {
	CreateRequestFunc       func(args model.CreateRequestArgs) (*model.CollectionRequest, error)
	AssignRequestFunc       func(args model.AssignRequestArgs) (*model.CollectionRequest, error)
	UpdateRequestStatusFunc func(args model.UpdateRequestStatusArgs) (*model.CollectionRequest, error)
	GetRequestFunc          func(id string) (*model.CollectionRequest, error)
	ListRequestsFunc        func(args model.ListRequestsArgs) ([]model.CollectionRequest, error)
}

func (m *MockRequests) CreateRequest(_ context.Context, args model.CreateRequestArgs) (*model.CollectionRequest, error) {
	if m.CreateRequestFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.CreateRequestFunc(args)
}

func (m *MockRequests) AssignRequest(_ context.Context, args model.AssignRequestArgs) (*model.CollectionRequest, error) {
	if m.AssignRequestFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.AssignRequestFunc(args)
}

func (m *MockRequests) UpdateRequestStatus(_ context.Context, args model.UpdateRequestStatusArgs) (*model.CollectionRequest, error) {
	if m.UpdateRequestStatusFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.UpdateRequestStatusFunc(args)
}

func (m *MockRequests) GetRequest(_ context.Context, id string) (*model.CollectionRequest, error) {
	if m.GetRequestFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.GetRequestFunc(id)
}

func (m *MockRequests) ListRequests(_ context.Context, args model.ListRequestsArgs) ([]model.CollectionRequest, error) {
	if m.ListRequestsFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListRequestsFunc(args)
}

type MockRoutes struct {
	CreateRouteFunc      func(args model.CreateRouteArgs) (*model.Route, error)
	AddCollectionFunc    func(routeID, collectionID string) (*model.Route, error)
	RemoveCollectionFunc func(routeID, collectionID string) (*model.Route, error)
	RouteStopsFunc       func(routeID string) (*model.RouteView, error)
	CollectorRouteFunc   func(collectorID string, date time.Time) (*model.RouteView, error)
	TransitionRouteFunc  func(routeID string, to model.RouteStatus) (*model.Route, error)
	ReorderRouteFunc     func(routeID string, order []int) (*model.Route, error)
	OptimizeRouteFunc    func(routeID string) (*model.Route, error)
	GetRouteFunc         func(routeID string) (*model.Route, error)
	ListRoutesFunc       func(args model.ListRoutesArgs) ([]model.Route, error)
}

func (m *MockRoutes) CreateRoute(_ context.Context, args model.CreateRouteArgs) (*model.Route, error) {
	if m.CreateRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.CreateRouteFunc(args)
}

func (m *MockRoutes) AddCollection(_ context.Context, routeID, collectionID string) (*model.Route, error) {
	if m.AddCollectionFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.AddCollectionFunc(routeID, collectionID)
}

func (m *MockRoutes) RemoveCollection(_ context.Context, routeID, collectionID string) (*model.Route, error) {
	if m.RemoveCollectionFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.RemoveCollectionFunc(routeID, collectionID)
}

func (m *MockRoutes) RouteStops(_ context.Context, routeID string) (*model.RouteView, error) {
	if m.RouteStopsFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.RouteStopsFunc(routeID)
}

func (m *MockRoutes) CollectorRoute(_ context.Context, collectorID string, date time.Time) (*model.RouteView, error) {
	if m.CollectorRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.CollectorRouteFunc(collectorID, date)
}

func (m *MockRoutes) TransitionRoute(_ context.Context, routeID string, to model.RouteStatus) (*model.Route, error) {
	if m.TransitionRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.TransitionRouteFunc(routeID, to)
}

func (m *MockRoutes) ReorderRoute(_ context.Context, routeID string, order []int) (*model.Route, error) {
	if m.ReorderRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ReorderRouteFunc(routeID, order)
}

func (m *MockRoutes) OptimizeRoute(_ context.Context, routeID string) (*model.Route, error) {
	if m.OptimizeRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.OptimizeRouteFunc(routeID)
}

func (m *MockRoutes) GetRoute(_ context.Context, routeID string) (*model.Route, error) {
	if m.GetRouteFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.GetRouteFunc(routeID)
}

func (m *MockRoutes) ListRoutes(_ context.Context, args model.ListRoutesArgs) ([]model.Route, error) {
	if m.ListRoutesFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.ListRoutesFunc(args)
}
