package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

// SaveRoute inserts a new route. The UNIQUE (collector_id, route_date) constraint turns a
// second route for the same collector and day into model.ErrDuplicateRoute.
func (p *PostgresDB) SaveRoute(ctx context.Context, route *model.Route) error {
	if route == nil {
		return errors.New("nil route passed to save method")
	}
	id, err := newID(route.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	row := toRouteDB(route)
	row.ID = id
	row.CreatedAt = now
	row.UpdatedAt = now
	if _, err := p.db.ModelContext(ctx, row).Insert(); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateRoute
		}
		return persistenceErr("inserting route", err)
	}

	route.ID = id.String()
	route.CreatedAt = now
	route.UpdatedAt = now
	return nil
}

// UpdateRoute overwrites collections, order and status. It returns model.ErrNotFound if the route does not exist.
func (p *PostgresDB) UpdateRoute(ctx context.Context, route *model.Route) error {
	if route == nil {
		return errors.New("nil route passed to update method")
	}
	id, err := parseID(route.ID)
	if err != nil {
		return err
	}
	row := toRouteDB(route)
	row.ID = id
	row.UpdatedAt = p.nowFunc()
	res, err := p.db.ModelContext(ctx, row).
		Column("collections", "optimized_order", "status", "updated_at").
		WherePK().
		Update()
	if err != nil {
		return persistenceErr("updating route", err)
	}
	if res.RowsAffected() < 1 {
		return model.ErrNotFound
	}
	route.UpdatedAt = row.UpdatedAt
	return nil
}

// GetRoute returns a route by id.
func (p *PostgresDB) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := &routeDB{ID: uid}
	err = p.db.ModelContext(ctx, row).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("selecting route", err)
	}
	return p.toRouteModel(*row)
}

// FindRoute returns the collector's route dated in [from, to).
func (p *PostgresDB) FindRoute(ctx context.Context, collectorID string, from, to time.Time) (*model.Route, error) {
	row := new(routeDB)
	err := p.db.ModelContext(ctx, row).
		Where("collector_id = ?", collectorID).
		Where("route_date >= ?", from).
		Where("route_date < ?", to).
		Limit(1).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("selecting route", err)
	}
	return p.toRouteModel(*row)
}

// ListRoutes lists routes matching the query ordered by date.
func (p *PostgresDB) ListRoutes(ctx context.Context, query ports.ListRoutesQuery) ([]model.Route, error) {
	var rows []routeDB
	q := p.db.ModelContext(ctx, &rows).Order("route_date ASC", "collector_id ASC")
	if query.CollectorID != "" {
		q = q.Where("collector_id = ?", query.CollectorID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", string(query.Status))
	}
	if query.ContainsCollection != "" {
		q = q.Where("? = ANY(collections)", query.ContainsCollection)
	}
	if !query.DateFrom.IsZero() {
		q = q.Where("route_date >= ?", query.DateFrom)
	}
	if !query.DateTo.IsZero() {
		q = q.Where("route_date < ?", query.DateTo)
	}
	if query.Limit != uint32(0) {
		q = q.Limit(int(query.Limit))
	}
	if query.Offset != uint32(0) {
		q = q.Offset(int(query.Offset))
	}
	if err := q.Select(); err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, persistenceErr("listing routes", err)
	}

	routes := make([]model.Route, 0, len(rows))
	for _, row := range rows {
		route, err := p.toRouteModel(row)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, nil
}

type routeDB struct {
	tableName struct{} `pg:"wasteroute.routes"`

	ID             uuid.UUID `pg:"id,type:uuid,pk"`
	CollectorID    string    `pg:"collector_id"`
	Date           time.Time `pg:"route_date"`
	Collections    []string  `pg:"collections,array,use_zero"`
	OptimizedOrder []int     `pg:"optimized_order,array,use_zero"`
	Status         string    `pg:"status"`
	CreatedAt      time.Time `pg:"created_at"`
	UpdatedAt      time.Time `pg:"updated_at"`
}

func toRouteDB(r *model.Route) *routeDB {
	collections := r.Collections
	if collections == nil {
		collections = []string{}
	}
	order := r.OptimizedOrder
	if order == nil {
		order = []int{}
	}
	return &routeDB{
		CollectorID:    r.CollectorID,
		Date:           r.Date,
		Collections:    collections,
		OptimizedOrder: order,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// toRouteModel decodes a stored route and reconciles its ordering, so a row written with
// mismatched lengths is repaired on read.
func (p *PostgresDB) toRouteModel(r routeDB) (*model.Route, error) {
	route := &model.Route{
		ID:             r.ID.String(),
		CollectorID:    r.CollectorID,
		Date:           r.Date.In(p.loc),
		Collections:    r.Collections,
		OptimizedOrder: r.OptimizedOrder,
		Status:         model.RouteStatus(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := route.Reconcile(); err != nil {
		return nil, fmt.Errorf("stored route [%s]: %w", route.ID, err)
	}
	return route, nil
}
