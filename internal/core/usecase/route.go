package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ordering"
	"github.com/rbroggi/wasteroute/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// RouteServiceArgs contains the mandatory arguments for the RouteService.
type RouteServiceArgs struct {
	// Routes persists routes.
	Routes ports.RouteRepository

	// Requests resolves route members.
	Requests ports.RequestRepository

	// Users resolves collectors.
	Users ports.UserRepository

	// Policy computes visitation orders. Defaults to ordering.ByAddress.
	Policy ports.OrderingPolicy

	// Sender publishes route changes. Optional.
	Sender ports.RouteEventSender
}

// RouteServiceOptArgs are the optional arguments for building a RouteService.
type RouteServiceOptArgs = func(*RouteService)

// WithNowFunc can be used to override the clock. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) RouteServiceOptArgs {
	return func(s *RouteService) {
		s.nowFunc = nowFunc
	}
}

// WithLocation sets the time zone in which calendar days are computed. Defaults to UTC.
func WithLocation(loc *time.Location) RouteServiceOptArgs {
	return func(s *RouteService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewRouteService creates a new RouteService.
func NewRouteService(args RouteServiceArgs, optArgs ...RouteServiceOptArgs) *RouteService {
	s := &RouteService{
		routes:   args.Routes,
		requests: args.Requests,
		users:    args.Users,
		policy:   args.Policy,
		sender:   args.Sender,
		nowFunc:  func() time.Time { return time.Now().UTC() },
		loc:      time.UTC,
	}
	if s.policy == nil {
		s.policy = ordering.ByAddress{}
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// RouteService assembles collector routes and keeps their membership and visitation order consistent.
type RouteService struct {
	routes   ports.RouteRepository
	requests ports.RequestRepository
	users    ports.UserRepository
	policy   ports.OrderingPolicy
	sender   ports.RouteEventSender
	nowFunc  func() time.Time
	loc      *time.Location
}

// CreateRoute creates the route of a collector for a calendar day. The initial visitation order
// comes from the ordering policy. Uniqueness per (collector, day) is left to the repository.
func (s *RouteService) CreateRoute(ctx context.Context, args model.CreateRouteArgs) (*model.Route, error) {
	if err := s.checkCollector(ctx, args.CollectorID); err != nil {
		return nil, err
	}
	day := model.Day(args.Date, s.loc)
	if day.Before(model.Day(s.nowFunc(), s.loc)) {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidDate, day.Format(time.DateOnly))
	}

	ids := uniqueIDs(args.Collections)
	items, err := s.resolve(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	route := &model.Route{
		CollectorID:    args.CollectorID,
		Date:           day,
		Collections:    ids,
		OptimizedOrder: s.policy.Order(items),
		Status:         model.RoutePlanned,
	}
	if err := route.Reconcile(); err != nil {
		return nil, err
	}
	if err := s.routes.SaveRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("error saving route: %w", err)
	}
	s.publish(ctx, nil, route)
	return route, nil
}

// AddCollection appends an eligible request to the route. Adding a current member is a no-op.
func (s *RouteService) AddCollection(ctx context.Context, routeID, collectionID string) (*model.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, []string{collectionID}, true); err != nil {
		return nil, err
	}

	before := route.Clone()
	if !route.AddCollection(collectionID) {
		return route, nil
	}
	return s.save(ctx, before, route)
}

// RemoveCollection removes a request from the route and resets the order to the identity.
// Removing a non-member is a no-op.
func (s *RouteService) RemoveCollection(ctx context.Context, routeID, collectionID string) (*model.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	before := route.Clone()
	if !route.RemoveCollection(collectionID) {
		return route, nil
	}
	return s.save(ctx, before, route)
}

// VisitationOrder returns the route's collection ids in visitation order.
func (s *RouteService) VisitationOrder(ctx context.Context, routeID string) ([]string, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return route.Visitation(), nil
}

// RouteStops returns the route with its members resolved in visitation order.
func (s *RouteService) RouteStops(ctx context.Context, routeID string) (*model.RouteView, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, route)
}

// FindByCollectorAndDate returns the collector's route for the calendar day of date.
func (s *RouteService) FindByCollectorAndDate(ctx context.Context, collectorID string, date time.Time) (*model.Route, error) {
	from := model.Day(date, s.loc)
	route, err := s.routes.FindRoute(ctx, collectorID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("error finding route of collector [%s] on %s: %w", collectorID, from.Format(time.DateOnly), err)
	}
	return route, nil
}

// CollectorRoute is FindByCollectorAndDate with the stops resolved in visitation order.
func (s *RouteService) CollectorRoute(ctx context.Context, collectorID string, date time.Time) (*model.RouteView, error) {
	route, err := s.FindByCollectorAndDate(ctx, collectorID, date)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, route)
}

// TransitionRoute moves the route status one step forward.
func (s *RouteService) TransitionRoute(ctx context.Context, routeID string, to model.RouteStatus) (*model.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	before := route.Clone()
	if err := route.Advance(to); err != nil {
		return nil, err
	}
	return s.save(ctx, before, route)
}

// ReorderRoute replaces the visitation order. An order of the wrong length falls back to the
// identity; an order that is not a permutation is rejected.
func (s *RouteService) ReorderRoute(ctx context.Context, routeID string, order []int) (*model.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	before := route.Clone()
	route.OptimizedOrder = append([]int{}, order...)
	return s.save(ctx, before, route)
}

// OptimizeRoute recomputes the visitation order with the ordering policy.
func (s *RouteService) OptimizeRoute(ctx context.Context, routeID string) (*model.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	items, err := s.resolve(ctx, route.Collections, false)
	if err != nil {
		return nil, err
	}

	before := route.Clone()
	route.OptimizedOrder = s.policy.Order(items)
	return s.save(ctx, before, route)
}

// DetachCollection removes the request from every route that references it.
func (s *RouteService) DetachCollection(ctx context.Context, collectionID string) ([]model.Route, error) {
	routes, err := s.routes.ListRoutes(ctx, ports.ListRoutesQuery{ContainsCollection: collectionID})
	if err != nil {
		return nil, fmt.Errorf("error listing routes containing [%s]: %w", collectionID, err)
	}
	detached := make([]model.Route, 0, len(routes))
	for i := range routes {
		route := &routes[i]
		before := route.Clone()
		if !route.RemoveCollection(collectionID) {
			continue
		}
		saved, err := s.save(ctx, before, route)
		if err != nil {
			return detached, err
		}
		detached = append(detached, *saved)
	}
	return detached, nil
}

// GetRoute returns a route by id.
func (s *RouteService) GetRoute(ctx context.Context, routeID string) (*model.Route, error) {
	route, err := s.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("error getting route [%s]: %w", routeID, err)
	}
	return route, nil
}

// ListRoutes lists routes matching the arguments. From and To are inclusive calendar days.
func (s *RouteService) ListRoutes(ctx context.Context, args model.ListRoutesArgs) ([]model.Route, error) {
	query := ports.ListRoutesQuery{
		CollectorID: args.CollectorID,
		Status:      args.Status,
		Limit:       args.Limit,
		Offset:      args.Offset,
	}
	if !args.From.IsZero() {
		query.DateFrom = model.Day(args.From, s.loc)
	}
	if !args.To.IsZero() {
		query.DateTo = model.Day(args.To, s.loc).AddDate(0, 0, 1)
	}
	routes, err := s.routes.ListRoutes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing routes: %w", err)
	}
	return routes, nil
}

// save reconciles the ordering invariants and writes the route.
func (s *RouteService) save(ctx context.Context, before, route *model.Route) (*model.Route, error) {
	if err := route.Reconcile(); err != nil {
		return nil, err
	}
	if err := s.routes.UpdateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("error updating route [%s]: %w", route.ID, err)
	}
	s.publish(ctx, before, route)
	return route, nil
}

func (s *RouteService) checkCollector(ctx context.Context, collectorID string) error {
	user, err := s.users.GetUser(ctx, collectorID)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: user [%s] does not exist", model.ErrInvalidCollector, collectorID)
	}
	if err != nil {
		return fmt.Errorf("error resolving collector [%s]: %w", collectorID, err)
	}
	if user.Role != model.RoleCollector {
		return fmt.Errorf("%w: user [%s] has role %q", model.ErrInvalidCollector, collectorID, user.Role)
	}
	return nil
}

// resolve loads the requests in the order of ids.
func (s *RouteService) resolve(ctx context.Context, ids []string, requireEligible bool) ([]model.CollectionRequest, error) {
	if len(ids) == 0 {
		return []model.CollectionRequest{}, nil
	}
	found, err := s.requests.GetRequests(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error resolving collection requests: %w", err)
	}
	items := make([]model.CollectionRequest, len(ids))
	for i, id := range ids {
		item, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: collection request [%s]", model.ErrNotFound, id)
		}
		if requireEligible && !item.Status.RouteEligible() {
			return nil, fmt.Errorf("%w: request [%s] is %s", model.ErrIneligibleWorkItem, id, item.Status)
		}
		items[i] = item
	}
	return items, nil
}

func (s *RouteService) view(ctx context.Context, route *model.Route) (*model.RouteView, error) {
	found, err := s.requests.GetRequests(ctx, route.Collections)
	if err != nil {
		return nil, fmt.Errorf("error resolving stops of route [%s]: %w", route.ID, err)
	}
	stops := make([]model.CollectionRequest, 0, len(route.Collections))
	for _, id := range route.Visitation() {
		stop, ok := found[id]
		if !ok {
			log.WithField("route_id", route.ID).WithField("request_id", id).Warn("route references a missing collection request")
			continue
		}
		stops = append(stops, stop)
	}
	return &model.RouteView{Route: *route, Stops: stops}, nil
}

func (s *RouteService) publish(ctx context.Context, before, after *model.Route) {
	if s.sender == nil {
		return
	}
	event := model.RouteEvent{ID: uuid.NewString(), Before: before, After: after.Clone()}
	if err := s.sender.SendRouteEvent(ctx, event); err != nil {
		log.WithError(err).WithField("route_id", after.ID).Warn("could not publish route event")
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
