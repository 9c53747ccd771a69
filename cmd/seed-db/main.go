// Command seed-db creates the inventory schema and loads a catalog document
// through the stores.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/inventory-core/internal/catalog"
	"github.com/xenking/inventory-core/internal/repository"
)

type config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	File        string `default:"db/seed/catalog.json" usage:"Catalog document, optionally .gz" flag:"file"`
	ApplySchema bool   `default:"true" usage:"Create the inventory tables if missing" flag:"apply-schema"`
}

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	if err := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFiles: true,
		EnvPrefix: "SEED",
	}).Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Reading catalog", zap.String("path", cfg.File))
	b, err := catalog.ReadFile(ctx, cfg.File)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if cfg.ApplySchema {
		if err := repository.ApplySchema(ctx, pool); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}

	l := catalog.NewLoader(
		repository.NewSupplierRepository(pool),
		repository.NewProductRepository(pool),
		lg,
	)
	stats, err := l.Load(ctx, b)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	lg.Info("Catalog loaded",
		zap.Int("suppliers_created", stats.SuppliersCreated),
		zap.Int("suppliers_skipped", stats.SuppliersSkipped),
		zap.Int("products_created", stats.ProductsCreated),
		zap.Int("products_rejected", stats.ProductsRejected),
	)
	return nil
}
