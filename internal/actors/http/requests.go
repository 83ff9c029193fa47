package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

type geoPointRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type pickupLocationRequest struct {
	Address      string           `json:"address" validate:"required,max=200"`
	Coordinates  *geoPointRequest `json:"coordinates"`
	Instructions string           `json:"instructions" validate:"max=500"`
}

type createRequestRequest struct {
	WasteType      string                `json:"waste_type" validate:"required,oneof=organic recyclable hazardous general"`
	PickupLocation pickupLocationRequest `json:"pickup_location"`
	ScheduledDate  string                `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string                `json:"notes" validate:"max=1000"`
}

type assignRequestRequest struct {
	CollectorID   string `json:"collector_id" validate:"required"`
	ScheduledDate string `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
}

type requestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending assigned in-progress completed cancelled"`
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request, actor model.Actor, _ map[string]string) {
	var req createRequestRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	scheduled, err := s.parseDay(req.ScheduledDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	location := model.PickupLocation{Address: req.PickupLocation.Address, Instructions: req.PickupLocation.Instructions}
	if c := req.PickupLocation.Coordinates; c != nil {
		location.Coordinates = &model.GeoPoint{Latitude: c.Latitude, Longitude: c.Longitude}
	}
	request, err := s.requests.CreateRequest(r.Context(), model.CreateRequestArgs{
		RequesterID:    actor.UserID,
		WasteType:      model.WasteType(req.WasteType),
		PickupLocation: location,
		ScheduledDate:  scheduled,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// listRequests scopes residents to their own requests and collectors to the ones assigned to them.
func (s *Server) listRequests(w http.ResponseWriter, r *http.Request, actor model.Actor, _ map[string]string) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	args := model.ListRequestsArgs{
		RequesterID: q.Get("requester_id"),
		CollectorID: q.Get("collector_id"),
		Limit:       limit,
		Offset:      offset,
	}
	if raw := q.Get("status"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			status := model.RequestStatus(strings.TrimSpace(value))
			if !status.Valid() {
				writeError(w, r, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, status))
				return
			}
			args.Statuses = append(args.Statuses, status)
		}
	}
	switch actor.Role {
	case model.RoleResident:
		args.RequesterID = actor.UserID
	case model.RoleCollector:
		args.CollectorID = actor.UserID
	}

	requests, err := s.requests.ListRequests(r.Context(), args)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string) {
	request, err := s.requests.GetRequest(r.Context(), pathParams["request_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !mayReadRequest(actor, request) {
		writeError(w, r, fmt.Errorf("%w: request [%s] is not visible to the caller", model.ErrForbidden, request.ID))
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) assignRequest(w http.ResponseWriter, r *http.Request, _ model.Actor, pathParams map[string]string) {
	var req assignRequestRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	scheduled, err := s.parseDay(req.ScheduledDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	request, err := s.requests.AssignRequest(r.Context(), model.AssignRequestArgs{
		RequestID:     pathParams["request_id"],
		CollectorID:   req.CollectorID,
		ScheduledDate: scheduled,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) updateRequestStatus(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string) {
	var req requestStatusRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	request, err := s.requests.UpdateRequestStatus(r.Context(), model.UpdateRequestStatusArgs{
		RequestID: pathParams["request_id"],
		Status:    model.RequestStatus(req.Status),
		Actor:     actor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func mayReadRequest(actor model.Actor, request *model.CollectionRequest) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCollector:
		return request.AssignedCollectorID == actor.UserID
	case model.RoleResident:
		return request.RequesterID == actor.UserID
	}
	return false
}
