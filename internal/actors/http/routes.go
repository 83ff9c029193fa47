package rest

import (
	"fmt"
	"net/http"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

type createRouteRequest struct {
	CollectorID string   `json:"collector_id" validate:"required"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Collections []string `json:"collections" validate:"dive,required"`
}

type addCollectionRequest struct {
	CollectionID string `json:"collection_id" validate:"required"`
}

type routeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned active completed"`
}

type reorderRequest struct {
	Order []int `json:"order" validate:"required,dive,gte=0"`
}

// routeResponse is a route with its visitation order and, when resolved, its stops.
type routeResponse struct {
	Route           model.Route               `json:"route"`
	VisitationOrder []string                  `json:"visitation_order"`
	Stops           []model.CollectionRequest `json:"stops,omitempty"`
}

func newRouteResponse(route *model.Route, stops []model.CollectionRequest) routeResponse {
	return routeResponse{Route: *route, VisitationOrder: route.Visitation(), Stops: stops}
}

func (s *Server) createRoute(w http.ResponseWriter, r *http.Request, _ model.Actor, _ map[string]string) {
	var req createRouteRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := s.parseDay(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	route, err := s.routes.CreateRoute(r.Context(), model.CreateRouteArgs{
		CollectorID: req.CollectorID,
		Date:        date,
		Collections: req.Collections,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRouteResponse(route, nil))
}

// listRoutes scopes collectors to their own routes.
func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request, actor model.Actor, _ map[string]string) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	from, err := s.parseDay(q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := s.parseDay(q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := model.RouteStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, status))
		return
	}

	args := model.ListRoutesArgs{
		CollectorID: q.Get("collector_id"),
		Status:      status,
		From:        from,
		To:          to,
		Limit:       limit,
		Offset:      offset,
	}
	if actor.Role == model.RoleCollector {
		args.CollectorID = actor.UserID
	}
	routes, err := s.routes.ListRoutes(r.Context(), args)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]routeResponse, len(routes))
	for i := range routes {
		resp[i] = newRouteResponse(&routes[i], nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string) {
	view, err := s.routes.RouteStops(r.Context(), pathParams["route_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !mayReadRoute(actor, &view.Route) {
		writeError(w, r, fmt.Errorf("%w: route [%s] belongs to another collector", model.ErrForbidden, view.Route.ID))
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(&view.Route, view.Stops))
}

func (s *Server) addCollection(w http.ResponseWriter, r *http.Request, _ model.Actor, pathParams map[string]string) {
	var req addCollectionRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	route, err := s.routes.AddCollection(r.Context(), pathParams["route_id"], req.CollectionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(route, nil))
}

func (s *Server) removeCollection(w http.ResponseWriter, r *http.Request, _ model.Actor, pathParams map[string]string) {
	route, err := s.routes.RemoveCollection(r.Context(), pathParams["route_id"], pathParams["collection_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(route, nil))
}

// transitionRoute lets a collector move only its own route.
func (s *Server) transitionRoute(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string) {
	var req routeStatusRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	routeID := pathParams["route_id"]
	if actor.Role == model.RoleCollector {
		route, err := s.routes.GetRoute(r.Context(), routeID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !mayReadRoute(actor, route) {
			writeError(w, r, fmt.Errorf("%w: route [%s] belongs to another collector", model.ErrForbidden, route.ID))
			return
		}
	}
	route, err := s.routes.TransitionRoute(r.Context(), routeID, model.RouteStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(route, nil))
}

func (s *Server) reorderRoute(w http.ResponseWriter, r *http.Request, _ model.Actor, pathParams map[string]string) {
	var req reorderRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	route, err := s.routes.ReorderRoute(r.Context(), pathParams["route_id"], req.Order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(route, nil))
}

func (s *Server) optimizeRoute(w http.ResponseWriter, r *http.Request, _ model.Actor, pathParams map[string]string) {
	route, err := s.routes.OptimizeRoute(r.Context(), pathParams["route_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(route, nil))
}

// collectorRoute returns the collector's route of the given day, today when no date is given.
func (s *Server) collectorRoute(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string) {
	collectorID := pathParams["collector_id"]
	if actor.Role == model.RoleCollector && actor.UserID != collectorID {
		writeError(w, r, fmt.Errorf("%w: collectors may only read their own route", model.ErrForbidden))
		return
	}
	date, err := s.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		date = s.nowFunc().In(s.loc)
	}
	view, err := s.routes.CollectorRoute(r.Context(), collectorID, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(&view.Route, view.Stops))
}

func mayReadRoute(actor model.Actor, route *model.Route) bool {
	return actor.Role == model.RoleAdmin || route.CollectorID == actor.UserID
}
