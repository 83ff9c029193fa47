package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

// SaveUser will save the user in the database.
func (p *PostgresDB) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}

	id, err := newID(user.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	row := &userDB{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		FirstName:    user.Profile.FirstName,
		LastName:     user.Profile.LastName,
		Phone:        user.Profile.Phone,
		Address:      user.Profile.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !user.CreatedAt.IsZero() {
		row.CreatedAt = user.CreatedAt
	}
	if _, err := p.db.ModelContext(ctx, row).Insert(); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateUser
		}
		return persistenceErr("inserting user", err)
	}

	user.ID = row.ID.String()
	user.CreatedAt = row.CreatedAt
	user.UpdatedAt = row.UpdatedAt
	return nil
}

// GetUser returns a user by id.
func (p *PostgresDB) GetUser(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return p.findUser(ctx, "id = ?", uid)
}

// GetUserByEmail returns a user by its normalized email.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.findUser(ctx, "email = ?", email)
}

func (p *PostgresDB) findUser(ctx context.Context, condition string, param interface{}) (*model.User, error) {
	row := new(userDB)
	err := p.db.ModelContext(ctx, row).Where(condition, param).Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("selecting user", err)
	}
	user := row.toModel()
	return &user, nil
}

// ListUsers list users matching the parameters in input
func (p *PostgresDB) ListUsers(ctx context.Context, query ports.ListUsersQuery) ([]model.User, error) {
	var rows []userDB
	q := p.db.ModelContext(ctx, &rows).Order("created_at ASC")
	if query.Role != "" {
		q = q.Where("role = ?", string(query.Role))
	}
	if query.Limit != uint32(0) {
		q = q.Limit(int(query.Limit))
	}
	if query.Offset != uint32(0) {
		q = q.Offset(int(query.Offset))
	}
	if err := q.Select(); err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, persistenceErr("listing users", err)
	}

	users := make([]model.User, len(rows))
	for i, row := range rows {
		users[i] = row.toModel()
	}
	return users, nil
}

type userDB struct {
	tableName struct{} `pg:"wasteroute.users"`

	// ID unique identifier of the user.
	ID uuid.UUID `pg:"id,type:uuid,pk"`

	Username     string `pg:"username"`
	Email        string `pg:"email"`
	PasswordHash string `pg:"password_hash"`
	Role         string `pg:"role"`

	FirstName string `pg:"first_name"`
	LastName  string `pg:"last_name"`
	Phone     string `pg:"phone"`
	Address   string `pg:"address"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `pg:"created_at"`

	// UpdatedAt is the time at which the user was last updated
	UpdatedAt time.Time `pg:"updated_at"`
}

func (u userDB) toModel() model.User {
	return model.User{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         model.Role(u.Role),
		Profile: model.Profile{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
			Address:   u.Address,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
