package main

import (
	"database/sql"
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rbroggi/wasteroute/internal/config"
	log "github.com/sirupsen/logrus"
)

var (
	configFile = flag.String("config", "", "path to a yaml config file")
	down       = flag.Bool("down", false, "run migration down")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("error loading config")
	}

	db, err := sql.Open("postgres", cfg.PostgreSQL.URL)
	if err != nil {
		log.WithError(err).Fatal("error opening db connection")
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.WithError(err).Fatal("error invoking withInstance")
	}
	log.WithField("migrations", cfg.PostgreSQL.Migrations).Info("using migrations")
	m, err := migrate.NewWithDatabaseInstance(cfg.PostgreSQL.Migrations, "postgres", driver)
	if err != nil {
		log.WithError(err).Fatal("NewWithDatabaseInstance error")
	}

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return
	}
	if err != nil {
		log.WithError(err).WithField("down", *down).Fatal("error migrating")
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.WithError(err).Warn("could not read schema version")
		return
	}
	log.WithField("version", version).WithField("dirty", dirty).Info("migration done")
}
