package model

import (
	"time"
)

// RegisterUserArgs contain the arguments of the Register method.
type RegisterUserArgs struct {
	// Username is the unique login handle.
	Username string

	// Email is the user email. It is normalized before being stored.
	Email string

	// Password is the cleartext password. Only its hash is stored.
	Password string

	// Role is the user role. Zero-value defaults to resident.
	Role Role

	// Profile holds optional personal details.
	Profile Profile
}

// AuthenticateArgs contain the credentials of the Authenticate method.
type AuthenticateArgs struct {
	Email    string
	Password string
}

// AuthenticateResponse contains the authenticated user and its bearer token.
type AuthenticateResponse struct {
	// User
	User User

	// Token is a signed bearer token.
	Token string
}

// ListUsersArgs contain the arguments for the ListUsers use-case.
type ListUsersArgs struct {
	// Role filters users by role. Zero-value will be ignored as filter.
	Role Role

	// Limit is the maximum amount of users to return (for pagination). Zero-value will be interpreted as no-limit.
	Limit uint32

	// Offset is the offset to apply (for pagination). Zero-value will be interpreted as 0 Offset.
	Offset uint32
}

// CreateRequestArgs contain the arguments of the CreateRequest method.
type CreateRequestArgs struct {
	// RequesterID is the id of the resident filing the request.
	RequesterID string

	// WasteType is the category of waste.
	WasteType WasteType

	// PickupLocation is where the waste is collected.
	PickupLocation PickupLocation

	// ScheduledDate is the desired pickup day. Optional.
	ScheduledDate time.Time

	// Notes are free text.
	Notes string
}

// AssignRequestArgs contain the arguments of the AssignRequest method.
type AssignRequestArgs struct {
	RequestID     string
	CollectorID   string
	ScheduledDate time.Time
}

// UpdateRequestStatusArgs contain the arguments of the UpdateRequestStatus method.
type UpdateRequestStatusArgs struct {
	// RequestID is the request to move.
	RequestID string

	// Status is the target status.
	Status RequestStatus

	// Actor is the caller. Collectors may only move their own requests, residents may only cancel theirs.
	Actor Actor
}

// ListRequestsArgs contain the filters of the ListRequests method. Zero-values are ignored.
type ListRequestsArgs struct {
	RequesterID string
	CollectorID string
	Statuses    []RequestStatus
	Limit       uint32
	Offset      uint32
}

// CreateRouteArgs contain the arguments of the CreateRoute method.
type CreateRouteArgs struct {
	// CollectorID must reference a user with the collector role.
	CollectorID string

	// Date is any instant of the route's calendar day.
	Date time.Time

	// Collections are the initial collection-request ids.
	Collections []string
}

// ListRoutesArgs contain the filters of the ListRoutes method. Zero-values are ignored.
type ListRoutesArgs struct {
	// CollectorID filters by collector.
	CollectorID string

	// Status filters by route status.
	Status RouteStatus

	// From is the first calendar day included.
	From time.Time

	// To is the last calendar day included.
	To time.Time

	// Limit is the maximum amount of routes to return. Zero-value will be interpreted as no-limit.
	Limit uint32

	// Offset is the offset to apply (for pagination).
	Offset uint32
}

// RouteView is a route together with its stops resolved in visitation order.
type RouteView struct {
	// Route
	Route Route

	// Stops are the collection requests in visitation order.
	Stops []CollectionRequest
}
