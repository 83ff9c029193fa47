// Package rest exposes the use cases as a JSON API mounted on a grpc-gateway runtime.ServeMux.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

type userUsecase interface {
	Register(ctx context.Context, args model.RegisterUserArgs) (*model.User, error)
	Authenticate(ctx context.Context, args model.AuthenticateArgs) (*model.AuthenticateResponse, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, args model.ListUsersArgs) ([]model.User, error)
}

type requestUsecase interface {
	CreateRequest(ctx context.Context, args model.CreateRequestArgs) (*model.CollectionRequest, error)
	AssignRequest(ctx context.Context, args model.AssignRequestArgs) (*model.CollectionRequest, error)
	UpdateRequestStatus(ctx context.Context, args model.UpdateRequestStatusArgs) (*model.CollectionRequest, error)
	GetRequest(ctx context.Context, id string) (*model.CollectionRequest, error)
	ListRequests(ctx context.Context, args model.ListRequestsArgs) ([]model.CollectionRequest, error)
}

type routeUsecase interface {
	CreateRoute(ctx context.Context, args model.CreateRouteArgs) (*model.Route, error)
	AddCollection(ctx context.Context, routeID, collectionID string) (*model.Route, error)
	RemoveCollection(ctx context.Context, routeID, collectionID string) (*model.Route, error)
	RouteStops(ctx context.Context, routeID string) (*model.RouteView, error)
	CollectorRoute(ctx context.Context, collectorID string, date time.Time) (*model.RouteView, error)
	TransitionRoute(ctx context.Context, routeID string, to model.RouteStatus) (*model.Route, error)
	ReorderRoute(ctx context.Context, routeID string, order []int) (*model.Route, error)
	OptimizeRoute(ctx context.Context, routeID string) (*model.Route, error)
	GetRoute(ctx context.Context, routeID string) (*model.Route, error)
	ListRoutes(ctx context.Context, args model.ListRoutesArgs) ([]model.Route, error)
}

// ServerArgs are the mandatory args to instantiate the Server.
type ServerArgs struct {
	// Users is the user usecase.
	Users userUsecase

	// Requests is the collection-request usecase.
	Requests requestUsecase

	// Routes is the route usecase.
	Routes routeUsecase

	// Tokens verifies the bearer tokens.
	Tokens ports.TokenVerifier
}

// ServerOptArgs are the optional arguments for the Server.
type ServerOptArgs = func(*Server)

// WithLocation sets the time zone calendar days in requests are read in. Defaults to UTC.
func WithLocation(loc *time.Location) ServerOptArgs {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) ServerOptArgs {
	return func(s *Server) {
		s.nowFunc = nowFunc
	}
}

// NewServer creates a new Server.
func NewServer(args ServerArgs, optArgs ...ServerOptArgs) (*Server, error) {
	if args.Users == nil || args.Requests == nil || args.Routes == nil {
		return nil, errors.New("rest server requires the user, request and route usecases")
	}
	if args.Tokens == nil {
		return nil, errors.New("rest server requires a token verifier")
	}
	s := &Server{
		users:    args.Users,
		requests: args.Requests,
		routes:   args.Routes,
		tokens:   args.Tokens,
		validate: validator.New(),
		loc:      time.UTC,
		nowFunc:  time.Now,
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s, nil
}

// Server holds the REST handlers.
type Server struct {
	users    userUsecase
	requests requestUsecase
	routes   routeUsecase
	tokens   ports.TokenVerifier
	validate *validator.Validate
	loc      *time.Location
	nowFunc  func() time.Time
}

var (
	anyRole          = []model.Role{model.RoleResident, model.RoleCollector, model.RoleAdmin}
	adminOnly        = []model.Role{model.RoleAdmin}
	residentOrAdmin  = []model.Role{model.RoleResident, model.RoleAdmin}
	collectorOrAdmin = []model.Role{model.RoleCollector, model.RoleAdmin}
)

// Register mounts every endpoint on the mux.
func (s *Server) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/api/v1/auth/register", s.register},
		{http.MethodPost, "/api/v1/auth/login", s.login},
		{http.MethodGet, "/api/v1/users/me", s.authorized(anyRole, s.me)},
		{http.MethodGet, "/api/v1/users", s.authorized(adminOnly, s.listUsers)},

		{http.MethodPost, "/api/v1/requests", s.authorized(residentOrAdmin, s.createRequest)},
		{http.MethodGet, "/api/v1/requests", s.authorized(anyRole, s.listRequests)},
		{http.MethodGet, "/api/v1/requests/{request_id}", s.authorized(anyRole, s.getRequest)},
		{http.MethodPost, "/api/v1/requests/{request_id}/assign", s.authorized(adminOnly, s.assignRequest)},
		{http.MethodPost, "/api/v1/requests/{request_id}/status", s.authorized(anyRole, s.updateRequestStatus)},

		{http.MethodPost, "/api/v1/routes", s.authorized(adminOnly, s.createRoute)},
		{http.MethodGet, "/api/v1/routes", s.authorized(collectorOrAdmin, s.listRoutes)},
		{http.MethodGet, "/api/v1/routes/{route_id}", s.authorized(collectorOrAdmin, s.getRoute)},
		{http.MethodPost, "/api/v1/routes/{route_id}/collections", s.authorized(adminOnly, s.addCollection)},
		{http.MethodDelete, "/api/v1/routes/{route_id}/collections/{collection_id}", s.authorized(adminOnly, s.removeCollection)},
		{http.MethodPost, "/api/v1/routes/{route_id}/status", s.authorized(collectorOrAdmin, s.transitionRoute)},
		{http.MethodPut, "/api/v1/routes/{route_id}/order", s.authorized(adminOnly, s.reorderRoute)},
		{http.MethodPost, "/api/v1/routes/{route_id}/optimize", s.authorized(adminOnly, s.optimizeRoute)},
		{http.MethodGet, "/api/v1/collectors/{collector_id}/route", s.authorized(collectorOrAdmin, s.collectorRoute)},
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return err
		}
	}
	return nil
}
