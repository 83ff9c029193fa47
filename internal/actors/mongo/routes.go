package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SaveRoute inserts a new route. The compound unique index on (collector_id, date) turns a
// second route for the same collector and day into model.ErrDuplicateRoute.
func (p *MongoDB) SaveRoute(ctx context.Context, route *model.Route) error {
	if route == nil {
		return errors.New("nil route passed to save method")
	}
	oid, err := newObjectID(route.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	dbRoute := toRouteDB(route)
	dbRoute.ID = oid
	dbRoute.CreatedAt = now
	dbRoute.UpdatedAt = now
	if _, err := p.routeCollection.InsertOne(ctx, dbRoute); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateRoute
		}
		return persistenceErr("inserting route", err)
	}

	route.ID = oid.Hex()
	route.CreatedAt = now
	route.UpdatedAt = now
	return nil
}

// UpdateRoute overwrites collections, order and status. It returns model.ErrNotFound if the route does not exist.
func (p *MongoDB) UpdateRoute(ctx context.Context, route *model.Route) error {
	if route == nil {
		return errors.New("nil route passed to update method")
	}
	oid, err := objectID(route.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	dbRoute := toRouteDB(route)
	update := bson.D{{"$set", bson.D{
		{"collections", dbRoute.Collections},
		{"optimized_order", dbRoute.OptimizedOrder},
		{"status", dbRoute.Status},
		{"updated_at", now},
	}}}
	res, err := p.routeCollection.UpdateByID(ctx, oid, update)
	if err != nil {
		return persistenceErr("updating route", err)
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	route.UpdatedAt = now
	return nil
}

// GetRoute returns a route by id.
func (p *MongoDB) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return p.findRoute(ctx, bson.D{{"_id", oid}})
}

// FindRoute returns the collector's route dated in [from, to).
func (p *MongoDB) FindRoute(ctx context.Context, collectorID string, from, to time.Time) (*model.Route, error) {
	return p.findRoute(ctx, bson.D{
		{"collector_id", collectorID},
		{"date", bson.D{{"$gte", from}, {"$lt", to}}},
	})
}

func (p *MongoDB) findRoute(ctx context.Context, filter bson.D) (*model.Route, error) {
	got := new(routeDB)
	if err := p.routeCollection.FindOne(ctx, filter).Decode(got); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, persistenceErr("finding route", err)
	}
	return p.toRouteModel(*got)
}

// ListRoutes lists routes matching the query ordered by date.
func (p *MongoDB) ListRoutes(ctx context.Context, query ports.ListRoutesQuery) ([]model.Route, error) {
	filters := bson.M{}
	if query.CollectorID != "" {
		filters["collector_id"] = query.CollectorID
	}
	if query.Status != "" {
		filters["status"] = query.Status
	}
	if query.ContainsCollection != "" {
		filters["collections"] = query.ContainsCollection
	}
	dateFilter := bson.M{}
	if !query.DateFrom.IsZero() {
		dateFilter["$gte"] = query.DateFrom
	}
	if !query.DateTo.IsZero() {
		dateFilter["$lt"] = query.DateTo
	}
	if len(dateFilter) > 0 {
		filters["date"] = dateFilter
	}

	cursor, err := p.routeCollection.Find(ctx, filters, findOptions(query.Limit, query.Offset, bson.D{{"date", 1}, {"collector_id", 1}}))
	if err != nil {
		return nil, persistenceErr("listing routes", err)
	}
	var routes []routeDB
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, persistenceErr("decoding routes", err)
	}
	models := make([]model.Route, 0, len(routes))
	for _, r := range routes {
		route, err := p.toRouteModel(r)
		if err != nil {
			return nil, err
		}
		models = append(models, *route)
	}
	return models, nil
}

type routeDB struct {
	ID             primitive.ObjectID `bson:"_id"`
	CollectorID    string             `bson:"collector_id"`
	Date           time.Time          `bson:"date"`
	Collections    []string           `bson:"collections"`
	OptimizedOrder []int              `bson:"optimized_order"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
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

// toRouteModel decodes a stored route and reconciles its ordering, so a document written with
// mismatched lengths is repaired on read.
func (p *MongoDB) toRouteModel(r routeDB) (*model.Route, error) {
	route := &model.Route{
		ID:             r.ID.Hex(),
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
