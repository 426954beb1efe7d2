package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"vahire/internal/app"
	"vahire/internal/config"
	"vahire/internal/database/migration"
	dbpostgres "vahire/internal/database/postgres"
	"vahire/internal/database/seeder"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	seed := flag.Bool("seed", true, "run the default seeders after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.StoreDriverPostgres {
		log.Fatalf("migrate needs STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.Database.Driver)
	}

	logger, err := app.NewLogger(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	r := migration.Runner{Dir: *dir, Logger: logger.Named("migration")}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	if *seed {
		s := seeder.Runner{Seeders: seeder.Defaults(), Logger: logger.Named("seeder")}
		if err := s.Run(ctx, db); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
	}

	logger.Info("migrate finished")
}
