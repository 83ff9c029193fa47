// Package storage opens the repository selected by the configuration.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	mongoactor "github.com/rbroggi/wasteroute/internal/actors/mongo"
	postgresactor "github.com/rbroggi/wasteroute/internal/actors/postgres"
	"github.com/rbroggi/wasteroute/internal/config"
	"github.com/rbroggi/wasteroute/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Open connects to the configured backend, checks it is reachable and returns the repository
// together with a function releasing the connection.
func Open(ctx context.Context, cfg config.Config, loc *time.Location) (ports.Repository, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMongo:
		return openMongo(ctx, cfg, loc)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, loc)
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func openMongo(ctx context.Context, cfg config.Config, loc *time.Location) (ports.Repository, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URL))
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("error disconnecting from mongodb")
		}
	}

	repo, err := mongoactor.NewMongoDB(mongoactor.DatabaseArgs(client.Database(cfg.MongoDB.Database)), mongoactor.WithLocation(loc))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("db does not appear to be reachable: %w", err)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	log.WithField("database", cfg.MongoDB.Database).Info("using mongodb repository")
	return repo, closeFn, nil
}

func openPostgres(ctx context.Context, cfg config.Config, loc *time.Location) (ports.Repository, func(), error) {
	opts, err := pg.ParseURL(cfg.PostgreSQL.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing postgresql url: %w", err)
	}
	db := pg.Connect(opts)
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error closing postgresql connection")
		}
	}

	repo, err := postgresactor.NewPostgresDB(postgresactor.PostgresDBArgs{DB: db}, postgresactor.WithLocation(loc))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("db does not appear to be reachable: %w", err)
	}
	log.WithField("database", opts.Database).Info("using postgresql repository")
	return repo, closeFn, nil
}
