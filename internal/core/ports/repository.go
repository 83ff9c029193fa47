package ports

import (
	"context"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

// Repository is the interface for the persistence layer.
type Repository interface {
	UserRepository
	RequestRepository
	RouteRepository

	// Ping checks that the storage is reachable.
	Ping(ctx context.Context) error
}

// UserRepository persists users.
type UserRepository interface {
	// SaveUser durably saves a new user. It returns model.ErrDuplicateUser if the username or email is taken.
	SaveUser(ctx context.Context, user *model.User) error

	// GetUser returns the user by id or model.ErrNotFound.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// GetUserByEmail returns the user by normalized email or model.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListUsers lists all users matching the query parameters.
	ListUsers(ctx context.Context, query ListUsersQuery) ([]model.User, error)
}

// RequestRepository persists collection requests.
type RequestRepository interface {
	// SaveRequest durably saves a new collection request.
	SaveRequest(ctx context.Context, request *model.CollectionRequest) error

	// UpdateRequest overwrites the mutable fields of the request. It returns model.ErrNotFound if it does not exist.
	UpdateRequest(ctx context.Context, request *model.CollectionRequest) error

	// GetRequest returns the request by id or model.ErrNotFound.
	GetRequest(ctx context.Context, id string) (*model.CollectionRequest, error)

	// GetRequests resolves the given ids. Unknown ids are absent from the result map.
	GetRequests(ctx context.Context, ids []string) (map[string]model.CollectionRequest, error)

	// ListRequests lists requests matching the query, newest first.
	ListRequests(ctx context.Context, query ListRequestsQuery) ([]model.CollectionRequest, error)
}

// RouteRepository persists routes.
type RouteRepository interface {
	// SaveRoute durably saves a new route. It returns model.ErrDuplicateRoute when the
	// (collector, date) unique constraint is violated.
	SaveRoute(ctx context.Context, route *model.Route) error

	// UpdateRoute overwrites collections, order and status. It returns model.ErrNotFound if it does not exist.
	UpdateRoute(ctx context.Context, route *model.Route) error

	// GetRoute returns the route by id or model.ErrNotFound.
	GetRoute(ctx context.Context, id string) (*model.Route, error)

	// FindRoute returns the route of the collector whose date lies in [from, to), or model.ErrNotFound.
	FindRoute(ctx context.Context, collectorID string, from, to time.Time) (*model.Route, error)

	// ListRoutes lists routes matching the query ordered by date.
	ListRoutes(ctx context.Context, query ListRoutesQuery) ([]model.Route, error)
}

// ListUsersQuery gather the parameters of the user listing.
type ListUsersQuery struct {
	// Role filters by role. Zero-value will be ignored as filter.
	Role model.Role

	// Limit is the maximum amount of users to return (for pagination). Zero-value will be interpreted as no-limit.
	Limit uint32

	// Offset is the offset to apply (for pagination). Zero-value will be interpreted as 0 Offset.
	Offset uint32
}

// ListRequestsQuery gather the parameters of the request listing. Zero-values are ignored.
type ListRequestsQuery struct {
	RequesterID string
	CollectorID string
	Statuses    []model.RequestStatus
	Limit       uint32
	Offset      uint32
}

// ListRoutesQuery gather the parameters of the route listing. Zero-values are ignored.
type ListRoutesQuery struct {
	// CollectorID filters by collector.
	CollectorID string

	// Status filters by route status.
	Status model.RouteStatus

	// ContainsCollection filters routes referencing the collection-request id.
	ContainsCollection string

	// DateFrom is the inclusive lower bound of the route date.
	DateFrom time.Time

	// DateTo is the exclusive upper bound of the route date.
	DateTo time.Time

	// Limit is the maximum amount of routes to return. Zero-value will be interpreted as no-limit.
	Limit uint32

	// Offset is the offset to apply (for pagination).
	Offset uint32
}
