package model

import (
	"fmt"
	"time"
)

// RouteStatus is the lifecycle status of a route. It only moves forward: planned, active, completed.
type RouteStatus string

const (
	RoutePlanned   RouteStatus = "planned"
	RouteActive    RouteStatus = "active"
	RouteCompleted RouteStatus = "completed"
)

// Valid reports whether s is a known route status.
func (s RouteStatus) Valid() bool {
	switch s {
	case RoutePlanned, RouteActive, RouteCompleted:
		return true
	}
	return false
}

// next returns the only status s may move to.
func (s RouteStatus) next() (RouteStatus, bool) {
	switch s {
	case RoutePlanned:
		return RouteActive, true
	case RouteActive:
		return RouteCompleted, true
	}
	return "", false
}

// Route binds one collector to one calendar day and an ordered subset of collection requests.
//
// Collections keeps assignment order; OptimizedOrder holds indices into Collections and
// defines the visitation order. The two slices are only mutated through the methods below
// and are reconciled before every write.
type Route struct {
	// ID unique identifier of the route.
	ID string `json:"id"`

	// CollectorID is the id of the collector walking the route.
	CollectorID string `json:"collector_id"`

	// Date is the start of the route's calendar day.
	Date time.Time `json:"date"`

	// Collections are the referenced collection-request ids in assignment order.
	Collections []string `json:"collections"`

	// OptimizedOrder is a permutation of the indices of Collections.
	OptimizedOrder []int `json:"optimized_order"`

	// Status is the route lifecycle status.
	Status RouteStatus `json:"status"`

	// CreatedAt is the time at which the route was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time at which the route was last updated.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the route.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.Collections = append([]string{}, r.Collections...)
	c.OptimizedOrder = append([]int{}, r.OptimizedOrder...)
	return &c
}

// Reconcile restores the ordering invariants. A length mismatch between OptimizedOrder and
// Collections is repaired with the identity permutation; an order of the right length that is
// not a permutation is rejected with ErrOrderingInvariant.
func (r *Route) Reconcile() error {
	if r.Collections == nil {
		r.Collections = []string{}
	}
	if len(r.OptimizedOrder) != len(r.Collections) {
		r.OptimizedOrder = IdentityOrder(len(r.Collections))
	}
	return ValidatePermutation(r.OptimizedOrder, len(r.Collections))
}

// Contains reports whether the collection request id is a member of the route.
func (r *Route) Contains(collectionID string) bool {
	return r.indexOf(collectionID) >= 0
}

func (r *Route) indexOf(collectionID string) int {
	for i, id := range r.Collections {
		if id == collectionID {
			return i
		}
	}
	return -1
}

// AddCollection appends the id and re-derives the order. It returns false if the id is already a member.
func (r *Route) AddCollection(collectionID string) bool {
	if r.Contains(collectionID) {
		return false
	}
	r.Collections = append(r.Collections, collectionID)
	r.OptimizedOrder = IdentityOrder(len(r.Collections))
	return true
}

// RemoveCollection drops the id and resets the order to the identity over the remaining items.
// It returns false if the id is not a member.
func (r *Route) RemoveCollection(collectionID string) bool {
	i := r.indexOf(collectionID)
	if i < 0 {
		return false
	}
	collections := make([]string, 0, len(r.Collections)-1)
	collections = append(collections, r.Collections[:i]...)
	collections = append(collections, r.Collections[i+1:]...)
	r.Collections = collections
	r.OptimizedOrder = IdentityOrder(len(r.Collections))
	return true
}

// Visitation returns the collection ids in visitation order: the i-th stop is Collections[OptimizedOrder[i]].
func (r *Route) Visitation() []string {
	stops := make([]string, 0, len(r.OptimizedOrder))
	for _, idx := range r.OptimizedOrder {
		if idx < 0 || idx >= len(r.Collections) {
			continue
		}
		stops = append(stops, r.Collections[idx])
	}
	return stops
}

// Advance moves the route to the given status. Only forward-adjacent transitions are accepted.
func (r *Route) Advance(to RouteStatus) error {
	next, ok := r.Status.next()
	if !ok || next != to {
		return fmt.Errorf("%w: route %q -> %q", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

// IdentityOrder returns [0, 1, ..., n-1].
func IdentityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// ValidatePermutation checks that order is a permutation of [0, n).
func ValidatePermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: %d indices for %d collections", ErrOrderingInvariant, len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d out of range", ErrOrderingInvariant, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: duplicate index %d", ErrOrderingInvariant, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Day returns the start of t's calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
