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

// SaveUser will save the user in the database.
func (p *MongoDB) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}

	dbUser, err := p.toUserDB(user)
	if err != nil {
		return err
	}
	if _, err := p.userCollection.InsertOne(ctx, dbUser); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateUser
		}
		return persistenceErr("inserting user", err)
	}

	user.ID = dbUser.ID.Hex()
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// GetUser returns a user by id.
func (p *MongoDB) GetUser(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return p.findUser(ctx, bson.D{{"_id", oid}})
}

// GetUserByEmail returns a user by its normalized email.
func (p *MongoDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.findUser(ctx, bson.D{{"email", email}})
}

func (p *MongoDB) findUser(ctx context.Context, filter bson.D) (*model.User, error) {
	got := new(userDB)
	if err := p.userCollection.FindOne(ctx, filter).Decode(got); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, persistenceErr("finding user", err)
	}
	user := got.toModel()
	return &user, nil
}

// ListUsers list users matching the parameters in input
func (p *MongoDB) ListUsers(ctx context.Context, query ports.ListUsersQuery) ([]model.User, error) {
	filters := bson.M{}
	if query.Role != "" {
		filters["role"] = query.Role
	}

	cursor, err := p.userCollection.Find(ctx, filters, findOptions(query.Limit, query.Offset, bson.D{{"created_at", 1}}))
	if err != nil {
		return nil, persistenceErr("listing users", err)
	}
	var users []userDB
	if err := cursor.All(ctx, &users); err != nil {
		return nil, persistenceErr("decoding users", err)
	}
	models := make([]model.User, len(users))
	for i, u := range users {
		models[i] = u.toModel()
	}
	return models, nil
}

func (p *MongoDB) toUserDB(user *model.User) (*userDB, error) {
	oid, err := newObjectID(user.ID)
	if err != nil {
		return nil, err
	}
	now := p.nowFunc()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &userDB{
		ID:           oid,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Profile:      profileDB(user.Profile),
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}, nil
}

type userDB struct {
	// ID unique identifier of the user.
	ID primitive.ObjectID `bson:"_id"`

	// Username is unique.
	Username string `bson:"username"`

	// Email is unique and normalized.
	Email string `bson:"email"`

	// PasswordHash contains the argon2id password hash.
	PasswordHash string `bson:"password_hash"`

	// Role is resident, collector or admin.
	Role string `bson:"role"`

	Profile profileDB `bson:"profile"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time at which the user was last updated
	UpdatedAt time.Time `bson:"updated_at"`
}

type profileDB struct {
	FirstName string `bson:"first_name,omitempty"`
	LastName  string `bson:"last_name,omitempty"`
	Phone     string `bson:"phone,omitempty"`
	Address   string `bson:"address,omitempty"`
}

func (u userDB) toModel() model.User {
	return model.User{
		ID:           u.ID.Hex(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         model.Role(u.Role),
		Profile:      model.Profile(u.Profile),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
