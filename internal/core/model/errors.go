package model

import "errors"

var (
	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrInvalidCollector is returned when a referenced user does not exist or does not hold the collector role.
	ErrInvalidCollector = errors.New("referenced user is not a collector")

	// ErrInvalidDate is returned when a route is dated before the current calendar day.
	ErrInvalidDate = errors.New("route date cannot be in the past")

	// ErrIneligibleWorkItem is returned when a collection request cannot be part of a route because of its status.
	ErrIneligibleWorkItem = errors.New("collection request must be assigned, in-progress or completed to be in a route")

	// ErrDuplicateRoute is returned when a collector already has a route for the requested day.
	ErrDuplicateRoute = errors.New("a route already exists for this collector and day")

	// ErrInvalidTransition is returned on backward, skipping or otherwise unknown status transitions.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrderingInvariant is returned when an optimized order is not a permutation of the route collections.
	ErrOrderingInvariant = errors.New("optimized order is not a permutation of the route collections")

	// ErrPersistence wraps storage failures that are not otherwise classified.
	ErrPersistence = errors.New("persistence error")

	// ErrDuplicateUser is returned when the username or the email is already registered.
	ErrDuplicateUser = errors.New("username or email already registered")

	// ErrInvalidArgument is returned when input does not satisfy basic shape constraints.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated is returned for bad credentials or tokens.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)
