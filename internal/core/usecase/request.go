package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// RequestServiceArgs contains the mandatory arguments for the RequestService.
type RequestServiceArgs struct {
	// Requests persists collection requests.
	Requests ports.RequestRepository

	// Users resolves requesters and collectors.
	Users ports.UserRepository

	// Sender publishes request changes. Optional.
	Sender ports.RequestEventSender
}

// RequestServiceOptArgs are the optional arguments for building a RequestService.
type RequestServiceOptArgs = func(*RequestService)

// WithRequestNowFunc can be used to override the clock. Useful for testing.
func WithRequestNowFunc(nowFunc func() time.Time) RequestServiceOptArgs {
	return func(s *RequestService) {
		s.nowFunc = nowFunc
	}
}

// NewRequestService creates a new RequestService.
func NewRequestService(args RequestServiceArgs, optArgs ...RequestServiceOptArgs) *RequestService {
	s := &RequestService{
		requests: args.Requests,
		users:    args.Users,
		sender:   args.Sender,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// RequestService owns the collection-request lifecycle.
type RequestService struct {
	requests ports.RequestRepository
	users    ports.UserRepository
	sender   ports.RequestEventSender
	nowFunc  func() time.Time
}

// CreateRequest files a new pending request on behalf of a resident (or an admin).
func (s *RequestService) CreateRequest(ctx context.Context, args model.CreateRequestArgs) (*model.CollectionRequest, error) {
	if !args.WasteType.Valid() {
		return nil, fmt.Errorf("%w: unknown waste type %q", model.ErrInvalidArgument, args.WasteType)
	}
	args.PickupLocation.Address = strings.TrimSpace(args.PickupLocation.Address)
	if args.PickupLocation.Address == "" {
		return nil, fmt.Errorf("%w: pickup address is required", model.ErrInvalidArgument)
	}

	requester, err := s.users.GetUser(ctx, args.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("error resolving requester [%s]: %w", args.RequesterID, err)
	}
	if requester.Role != model.RoleResident && requester.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only residents file collection requests", model.ErrForbidden)
	}

	request := &model.CollectionRequest{
		RequesterID:    requester.ID,
		WasteType:      args.WasteType,
		Status:         model.RequestPending,
		PickupLocation: args.PickupLocation,
		ScheduledDate:  args.ScheduledDate,
		Notes:          args.Notes,
	}
	if err := s.requests.SaveRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("error saving collection request: %w", err)
	}
	s.publish(ctx, nil, request)
	return request, nil
}

// AssignRequest assigns a request to a collector.
func (s *RequestService) AssignRequest(ctx context.Context, args model.AssignRequestArgs) (*model.CollectionRequest, error) {
	request, err := s.requests.GetRequest(ctx, args.RequestID)
	if err != nil {
		return nil, fmt.Errorf("error getting collection request [%s]: %w", args.RequestID, err)
	}
	collector, err := s.users.GetUser(ctx, args.CollectorID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: user [%s] does not exist", model.ErrInvalidCollector, args.CollectorID)
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving collector [%s]: %w", args.CollectorID, err)
	}
	if collector.Role != model.RoleCollector {
		return nil, fmt.Errorf("%w: user [%s] has role %q", model.ErrInvalidCollector, collector.ID, collector.Role)
	}

	before := *request
	if err := request.Assign(collector.ID, args.ScheduledDate); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("error updating collection request: %w", err)
	}
	s.publish(ctx, &before, request)
	return request, nil
}

// UpdateRequestStatus moves a request through its lifecycle on behalf of the actor.
func (s *RequestService) UpdateRequestStatus(ctx context.Context, args model.UpdateRequestStatusArgs) (*model.CollectionRequest, error) {
	if !args.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, args.Status)
	}
	request, err := s.requests.GetRequest(ctx, args.RequestID)
	if err != nil {
		return nil, fmt.Errorf("error getting collection request [%s]: %w", args.RequestID, err)
	}
	if !mayMoveRequest(args.Actor, request, args.Status) {
		return nil, fmt.Errorf("%w: %s may not move request [%s] to %q", model.ErrForbidden, args.Actor.Role, request.ID, args.Status)
	}

	before := *request
	if err := request.Advance(args.Status, s.nowFunc()); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("error updating collection request: %w", err)
	}
	s.publish(ctx, &before, request)
	return request, nil
}

// GetRequest returns a request by id.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*model.CollectionRequest, error) {
	request, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting collection request [%s]: %w", id, err)
	}
	return request, nil
}

// ListRequests lists requests matching the arguments.
func (s *RequestService) ListRequests(ctx context.Context, args model.ListRequestsArgs) ([]model.CollectionRequest, error) {
	requests, err := s.requests.ListRequests(ctx, ports.ListRequestsQuery{
		RequesterID: args.RequesterID,
		CollectorID: args.CollectorID,
		Statuses:    args.Statuses,
		Limit:       args.Limit,
		Offset:      args.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing collection requests: %w", err)
	}
	return requests, nil
}

func mayMoveRequest(actor model.Actor, request *model.CollectionRequest, to model.RequestStatus) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCollector:
		return request.AssignedCollectorID == actor.UserID &&
			(to == model.RequestInProgress || to == model.RequestCompleted)
	case model.RoleResident:
		return request.RequesterID == actor.UserID && to == model.RequestCancelled
	}
	return false
}

func (s *RequestService) publish(ctx context.Context, before, after *model.CollectionRequest) {
	if s.sender == nil {
		return
	}
	snapshot := *after
	event := model.RequestEvent{ID: uuid.NewString(), Before: before, After: &snapshot}
	if err := s.sender.SendRequestEvent(ctx, event); err != nil {
		log.WithError(err).WithField("request_id", after.ID).Warn("could not publish request event")
	}
}
