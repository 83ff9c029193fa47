package model

import (
	"fmt"
	"time"
)

// WasteType is the category of waste to be collected.
type WasteType string

const (
	WasteOrganic    WasteType = "organic"
	WasteRecyclable WasteType = "recyclable"
	WasteHazardous  WasteType = "hazardous"
	WasteGeneral    WasteType = "general"
)

// Valid reports whether w is a known waste category.
func (w WasteType) Valid() bool {
	switch w {
	case WasteOrganic, WasteRecyclable, WasteHazardous, WasteGeneral:
		return true
	}
	return false
}

// RequestStatus is the lifecycle status of a collection request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestAssigned   RequestStatus = "assigned"
	RequestInProgress RequestStatus = "in-progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAssigned, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// RouteEligible reports whether a request in status s may be referenced by a route.
func (s RequestStatus) RouteEligible() bool {
	switch s {
	case RequestAssigned, RequestInProgress, RequestCompleted:
		return true
	}
	return false
}

// GeoPoint is an optional coordinate pair attached to a pickup location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PickupLocation is where the waste is collected.
type PickupLocation struct {
	// Address is the free-form street address. Route ordering sorts on it.
	Address string `json:"address"`

	// Coordinates are optional.
	Coordinates *GeoPoint `json:"coordinates,omitempty"`

	// Instructions are free-text hints for the collector.
	Instructions string `json:"instructions,omitempty"`
}

// CollectionRequest is a single pickup request (a work item).
type CollectionRequest struct {
	// ID unique identifier of the request.
	ID string `json:"id"`

	// RequesterID is the id of the resident that filed the request.
	RequesterID string `json:"requester_id"`

	// WasteType is the category of waste.
	WasteType WasteType `json:"waste_type"`

	// Status is the lifecycle status.
	Status RequestStatus `json:"status"`

	// PickupLocation is where the waste is collected.
	PickupLocation PickupLocation `json:"pickup_location"`

	// AssignedCollectorID is empty until the request is assigned.
	AssignedCollectorID string `json:"assigned_collector_id,omitempty"`

	// ScheduledDate is the planned pickup day. Zero-valued if not scheduled.
	ScheduledDate time.Time `json:"scheduled_date,omitempty"`

	// CompletedDate is set iff the status is completed.
	CompletedDate time.Time `json:"completed_date,omitempty"`

	// Notes are free text.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is the time at which the request was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time at which the request was last updated.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Assign binds the request to a collector. Allowed from pending and, for re-assignment, from assigned.
func (r *CollectionRequest) Assign(collectorID string, scheduled time.Time) error {
	if r.Status != RequestPending && r.Status != RequestAssigned {
		return fmt.Errorf("%w: cannot assign a request in status %q", ErrInvalidTransition, r.Status)
	}
	if collectorID == "" {
		return fmt.Errorf("%w: empty collector id", ErrInvalidArgument)
	}
	r.AssignedCollectorID = collectorID
	r.Status = RequestAssigned
	if !scheduled.IsZero() {
		r.ScheduledDate = scheduled
	}
	return nil
}

// Advance moves the request to next. Assignment goes through Assign and is rejected here.
func (r *CollectionRequest) Advance(next RequestStatus, now time.Time) error {
	allowed := false
	switch r.Status {
	case RequestPending:
		allowed = next == RequestCancelled
	case RequestAssigned:
		allowed = next == RequestInProgress || next == RequestCancelled
	case RequestInProgress:
		allowed = next == RequestCompleted
	}
	if !allowed {
		return fmt.Errorf("%w: request %q -> %q", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	if next == RequestCompleted {
		r.CompletedDate = now
	}
	return nil
}
