package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB is a mongo adapter for persistance. It implements ports.Repository.
type MongoDB struct {
	userCollection    *mongo.Collection
	requestCollection *mongo.Collection
	routeCollection   *mongo.Collection
	nowFunc           func() time.Time
	loc               *time.Location
}

// MongoDBArgs are the mandatory arguments for the creation of a MongoDB
type MongoDBArgs struct {
	// UserCollection holds users.
	UserCollection *mongo.Collection

	// RequestCollection holds collection requests.
	RequestCollection *mongo.Collection

	// RouteCollection holds routes.
	RouteCollection *mongo.Collection
}

// DatabaseArgs returns the MongoDBArgs for the default collection names of db.
func DatabaseArgs(db *mongo.Database) MongoDBArgs {
	return MongoDBArgs{
		UserCollection:    db.Collection("users"),
		RequestCollection: db.Collection("collection_requests"),
		RouteCollection:   db.Collection("routes"),
	}
}

// MongoDBOptArgs are the optional arguments for building a MongoDB
type MongoDBOptArgs = func(*MongoDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) MongoDBOptArgs {
	return func(p *MongoDB) {
		p.nowFunc = nowFunc
	}
}

// WithLocation sets the time zone route dates are decoded into. Defaults to UTC.
func WithLocation(loc *time.Location) MongoDBOptArgs {
	return func(p *MongoDB) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// NewMongoDB creates a new MongoDB.
func NewMongoDB(args MongoDBArgs, optArgs ...MongoDBOptArgs) (*MongoDB, error) {
	if args.UserCollection == nil || args.RequestCollection == nil || args.RouteCollection == nil {
		return nil, errors.New("mongo actor requires the user, request and route collections")
	}
	m := &MongoDB{
		userCollection:    args.UserCollection,
		requestCollection: args.RequestCollection,
		routeCollection:   args.RouteCollection,
		nowFunc:           func() time.Time { return time.Now().UTC() },
		loc:               time.UTC,
	}
	for _, opt := range optArgs {
		opt(m)
	}
	return m, nil
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (p *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{
			collection: p.userCollection,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "role", Value: 1}}},
			},
		},
		{
			collection: p.requestCollection,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "requester_id", Value: 1}}},
				{Keys: bson.D{{Key: "assigned_collector_id", Value: 1}}},
				{Keys: bson.D{{Key: "status", Value: 1}}},
			},
		},
		{
			collection: p.routeCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "collector_id", Value: 1}, {Key: "date", Value: 1}},
					Options: options.Index().SetUnique(true).SetName("collector_day_unique"),
				},
				{Keys: bson.D{{Key: "collections", Value: 1}}},
			},
		},
	}
	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateMany(ctx, idx.models); err != nil {
			return persistenceErr("creating indexes on "+idx.collection.Name(), err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (p *MongoDB) Ping(ctx context.Context) error {
	if err := p.routeCollection.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return persistenceErr("ping", err)
	}
	return nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrPersistence, op, err)
}

// objectID parses a hex id. Malformed ids cannot exist in the store and map to model.ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", model.ErrNotFound, id)
	}
	return oid, nil
}

// newObjectID returns the ObjectID for id, generating one when id is empty.
func newObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", model.ErrInvalidArgument, id)
	}
	return oid, nil
}

func findOptions(limit, offset uint32, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit != 0 {
		opts.SetLimit(int64(limit))
	}
	if offset != 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}
