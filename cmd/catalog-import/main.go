// Command catalog-import bulk-loads suppliers and products from one or more
// NDJSON or JSON catalog files, optionally gzip-compressed.
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
	DatabaseURL       string   `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	Files             []string `usage:"Comma-separated catalog files (.ndjson, .ndjson.gz, .json, .json.gz)" flag:"files"`
	ExpectedSuppliers int      `default:"100000" usage:"Expected distinct suppliers, sizes the dedup filter" flag:"expected-suppliers"`
	MaxConns          int32    `default:"4" usage:"Maximum database connections" flag:"max-conns"`
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
		EnvPrefix: "CATALOG_IMPORT",
	}).Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if len(cfg.Files) == 0 {
		lg.Fatal("No input files: set --files")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Catalog import failed", zap.Error(err))
	}
	lg.Info("Catalog import completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Parsing catalog files", zap.Strings("files", cfg.Files))
	b, err := catalog.ReadFiles(ctx, lg, cfg.Files)
	if err != nil {
		return errors.Wrap(err, "parse catalog files")
	}
	if b.Len() == 0 {
		lg.Info("No records to import")
		return nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.WithMaxConns(cfg.MaxConns))
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	l := catalog.NewLoader(
		repository.NewSupplierRepository(pool),
		repository.NewProductRepository(pool),
		lg,
		catalog.WithExpectedSuppliers(cfg.ExpectedSuppliers),
	)
	stats, err := l.Load(ctx, b)
	if err != nil {
		return errors.Wrap(err, "import records")
	}

	lg.Info("Import finished",
		zap.Int("suppliers_created", stats.SuppliersCreated),
		zap.Int("suppliers_skipped", stats.SuppliersSkipped),
		zap.Int("products_created", stats.ProductsCreated),
		zap.Int("products_rejected", stats.ProductsRejected),
	)
	return nil
}
