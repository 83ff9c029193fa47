package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
)

const uniqueViolation = "23505"

// PostgresDB is a postgres adapter for persistance. It implements ports.Repository.
type PostgresDB struct {
	db      *pg.DB
	nowFunc func() time.Time
	loc     *time.Location
}

// PostgresDBArgs are the mandatory arguments for the creation of a PostgresDB
type PostgresDBArgs struct {
	// DB is a postgres database handle
	DB *pg.DB
}

// PostgresDBOptArgs are the optional arguments for building a PostgresDB
type PostgresDBOptArgs = func(*PostgresDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) PostgresDBOptArgs {
	return func(p *PostgresDB) {
		p.nowFunc = nowFunc
	}
}

// WithLocation sets the time zone route dates are decoded into. Defaults to UTC.
func WithLocation(loc *time.Location) PostgresDBOptArgs {
	return func(p *PostgresDB) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// NewPostgresDB creates a new PostgresDB.
func NewPostgresDB(args PostgresDBArgs, optArgs ...PostgresDBOptArgs) (*PostgresDB, error) {
	if args.DB == nil {
		return nil, errors.New("postgres actor requires a database handle")
	}
	p := &PostgresDB{db: args.DB, nowFunc: func() time.Time { return time.Now().UTC() }, loc: time.UTC}
	for _, opt := range optArgs {
		opt(p)
	}
	return p, nil
}

// Ping checks the database is reachable.
func (p *PostgresDB) Ping(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		return persistenceErr("ping", err)
	}
	return nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrPersistence, op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr pg.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

// parseID parses a uuid. Malformed ids cannot exist in the store and map to model.ErrNotFound.
func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", model.ErrNotFound, id)
	}
	return uid, nil
}

// newID returns the uuid for id, generating one when id is empty.
func newID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", model.ErrInvalidArgument, id)
	}
	return uid, nil
}
