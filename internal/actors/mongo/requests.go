package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SaveRequest inserts a new collection request.
func (p *MongoDB) SaveRequest(ctx context.Context, request *model.CollectionRequest) error {
	if request == nil {
		return errors.New("nil collection request passed to save method")
	}
	oid, err := newObjectID(request.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	dbRequest := toRequestDB(request)
	dbRequest.ID = oid
	dbRequest.CreatedAt = now
	dbRequest.UpdatedAt = now
	if _, err := p.requestCollection.InsertOne(ctx, dbRequest); err != nil {
		return persistenceErr("inserting collection request", err)
	}

	request.ID = oid.Hex()
	request.CreatedAt = now
	request.UpdatedAt = now
	return nil
}

// UpdateRequest overwrites the mutable fields of the request. It returns model.ErrNotFound if it does not exist.
func (p *MongoDB) UpdateRequest(ctx context.Context, request *model.CollectionRequest) error {
	if request == nil {
		return errors.New("nil collection request passed to update method")
	}
	oid, err := objectID(request.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	dbRequest := toRequestDB(request)
	update := bson.D{{"$set", bson.D{
		{"status", dbRequest.Status},
		{"pickup_location", dbRequest.PickupLocation},
		{"assigned_collector_id", dbRequest.AssignedCollectorID},
		{"scheduled_date", dbRequest.ScheduledDate},
		{"completed_date", dbRequest.CompletedDate},
		{"notes", dbRequest.Notes},
		{"updated_at", now},
	}}}
	res, err := p.requestCollection.UpdateByID(ctx, oid, update)
	if err != nil {
		return persistenceErr("updating collection request", err)
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	request.UpdatedAt = now
	return nil
}

// GetRequest returns a collection request by id.
func (p *MongoDB) GetRequest(ctx context.Context, id string) (*model.CollectionRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	got := new(requestDB)
	if err := p.requestCollection.FindOne(ctx, bson.D{{"_id", oid}}).Decode(got); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, persistenceErr("finding collection request", err)
	}
	request := got.toModel()
	return &request, nil
}

// GetRequests resolves the given ids. Unknown or malformed ids are absent from the result.
func (p *MongoDB) GetRequests(ctx context.Context, ids []string) (map[string]model.CollectionRequest, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	found := make(map[string]model.CollectionRequest, len(oids))
	if len(oids) == 0 {
		return found, nil
	}

	cursor, err := p.requestCollection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, persistenceErr("resolving collection requests", err)
	}
	var requests []requestDB
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, persistenceErr("decoding collection requests", err)
	}
	for _, r := range requests {
		found[r.ID.Hex()] = r.toModel()
	}
	return found, nil
}

// ListRequests lists requests matching the query, newest first.
func (p *MongoDB) ListRequests(ctx context.Context, query ports.ListRequestsQuery) ([]model.CollectionRequest, error) {
	filters := bson.M{}
	if query.RequesterID != "" {
		filters["requester_id"] = query.RequesterID
	}
	if query.CollectorID != "" {
		filters["assigned_collector_id"] = query.CollectorID
	}
	if len(query.Statuses) > 0 {
		filters["status"] = bson.M{"$in": query.Statuses}
	}

	cursor, err := p.requestCollection.Find(ctx, filters, findOptions(query.Limit, query.Offset, bson.D{{"created_at", -1}}))
	if err != nil {
		return nil, persistenceErr("listing collection requests", err)
	}
	var requests []requestDB
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, persistenceErr("decoding collection requests", err)
	}
	models := make([]model.CollectionRequest, len(requests))
	for i, r := range requests {
		models[i] = r.toModel()
	}
	return models, nil
}

type geoPointDB struct {
	Latitude  float64 `bson:"lat"`
	Longitude float64 `bson:"lng"`
}

type pickupLocationDB struct {
	Address      string      `bson:"address"`
	Coordinates  *geoPointDB `bson:"coordinates,omitempty"`
	Instructions string      `bson:"instructions,omitempty"`
}

type requestDB struct {
	ID                  primitive.ObjectID `bson:"_id"`
	RequesterID         string             `bson:"requester_id"`
	WasteType           string             `bson:"waste_type"`
	Status              string             `bson:"status"`
	PickupLocation      pickupLocationDB   `bson:"pickup_location"`
	AssignedCollectorID string             `bson:"assigned_collector_id,omitempty"`
	ScheduledDate       time.Time          `bson:"scheduled_date,omitempty"`
	CompletedDate       time.Time          `bson:"completed_date,omitempty"`
	Notes               string             `bson:"notes,omitempty"`
	CreatedAt           time.Time          `bson:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at"`
}

func toRequestDB(r *model.CollectionRequest) *requestDB {
	loc := pickupLocationDB{Address: r.PickupLocation.Address, Instructions: r.PickupLocation.Instructions}
	if c := r.PickupLocation.Coordinates; c != nil {
		loc.Coordinates = &geoPointDB{Latitude: c.Latitude, Longitude: c.Longitude}
	}
	return &requestDB{
		RequesterID:         r.RequesterID,
		WasteType:           string(r.WasteType),
		Status:              string(r.Status),
		PickupLocation:      loc,
		AssignedCollectorID: r.AssignedCollectorID,
		ScheduledDate:       r.ScheduledDate,
		CompletedDate:       r.CompletedDate,
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (r requestDB) toModel() model.CollectionRequest {
	loc := model.PickupLocation{Address: r.PickupLocation.Address, Instructions: r.PickupLocation.Instructions}
	if c := r.PickupLocation.Coordinates; c != nil {
		loc.Coordinates = &model.GeoPoint{Latitude: c.Latitude, Longitude: c.Longitude}
	}
	return model.CollectionRequest{
		ID:                  r.ID.Hex(),
		RequesterID:         r.RequesterID,
		WasteType:           model.WasteType(r.WasteType),
		Status:              model.RequestStatus(r.Status),
		PickupLocation:      loc,
		AssignedCollectorID: r.AssignedCollectorID,
		ScheduledDate:       r.ScheduledDate,
		CompletedDate:       r.CompletedDate,
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}
