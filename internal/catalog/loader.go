package catalog

import (
	"context"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/inventory-core/internal/domain/inventory"
	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

const (
	defaultExpectedSuppliers = 10_000
	bloomFPR                 = 0.001
	progressEvery            = 1_000
)

// Stats counts the outcome of a Load.
type Stats struct {
	SuppliersCreated int
	SuppliersSkipped int
	ProductsCreated  int
	ProductsRejected int
}

// Loader writes batches through the stores, one statement per record.
// Suppliers are deduplicated by email against both the database and
// everything loaded earlier; a Loader is not safe for concurrent use.
type Loader struct {
	suppliers supplier.Repository
	products  product.Repository
	lg        *zap.Logger

	expected int
	seen     *bloom.BloomFilter
	ids      map[string]int64
	primed   bool
}

// LoaderOption configures a Loader.
type LoaderOption func(l *Loader)

// WithExpectedSuppliers sizes the supplier filter.
func WithExpectedSuppliers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.expected = n
		}
	}
}

// NewLoader creates a Loader over the given stores.
func NewLoader(suppliers supplier.Repository, products product.Repository, lg *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		suppliers: suppliers,
		products:  products,
		lg:        lg,
		expected:  defaultExpectedSuppliers,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.seen = bloom.NewWithEstimates(uint(l.expected), bloomFPR)
	l.ids = make(map[string]int64, l.expected)
	return l
}

// prime registers the suppliers already stored so that re-running an import
// does not duplicate them.
func (l *Loader) prime(ctx context.Context) error {
	if l.primed {
		return nil
	}
	existing, err := l.suppliers.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list existing suppliers")
	}
	for _, s := range existing {
		l.remember(s.Email, s.ID)
	}
	l.primed = true
	l.lg.Info("Existing suppliers registered", zap.Int("count", len(existing)))
	return nil
}

func (l *Loader) remember(email string, id int64) {
	key := normalizeEmail(email)
	l.seen.AddString(key)
	if _, ok := l.ids[key]; !ok {
		l.ids[key] = id
	}
}

// lookup resolves a supplier email. The filter answers most misses without
// touching the map.
func (l *Loader) lookup(email string) (int64, bool) {
	key := normalizeEmail(email)
	if !l.seen.TestString(key) {
		return 0, false
	}
	id, ok := l.ids[key]
	return id, ok
}

// Load writes suppliers and then products. A product naming an unknown
// supplier email, or one the store rejects with a constraint violation, is
// counted as rejected; any other store error aborts the load.
func (l *Loader) Load(ctx context.Context, b Batch) (Stats, error) {
	var stats Stats
	if err := l.prime(ctx); err != nil {
		return stats, err
	}

	for _, s := range b.Suppliers {
		if _, ok := l.lookup(s.Email); ok {
			stats.SuppliersSkipped++
			continue
		}
		id, err := l.suppliers.Create(ctx, s)
		if err != nil {
			return stats, errors.Wrapf(err, "create supplier %q", s.Email)
		}
		l.remember(s.Email, id)
		stats.SuppliersCreated++
	}
	l.lg.Info("Suppliers loaded",
		zap.Int("created", stats.SuppliersCreated),
		zap.Int("skipped", stats.SuppliersSkipped),
	)

	for i, p := range b.Products {
		f := p.Fields
		if f.SupplierID == 0 {
			id, ok := l.lookup(p.SupplierEmail)
			if !ok {
				l.lg.Warn("Product rejected: unknown supplier",
					zap.String("product", f.Name),
					zap.String("supplier_email", p.SupplierEmail),
				)
				stats.ProductsRejected++
				continue
			}
			f.SupplierID = id
		}

		if _, err := l.products.Create(ctx, f); err != nil {
			if !errors.Is(err, inventory.ErrConstraintViolation) {
				return stats, errors.Wrapf(err, "create product %q", f.Name)
			}
			l.lg.Warn("Product rejected",
				zap.String("product", f.Name),
				zap.Int64("supplier_id", f.SupplierID),
				zap.Error(err),
			)
			stats.ProductsRejected++
			continue
		}
		stats.ProductsCreated++

		if (i+1)%progressEvery == 0 {
			l.lg.Info("Product load progress", zap.Int("processed", i+1), zap.Int("total", len(b.Products)))
		}
	}
	l.lg.Info("Products loaded",
		zap.Int("created", stats.ProductsCreated),
		zap.Int("rejected", stats.ProductsRejected),
	)
	return stats, nil
}

// ReadFiles parses every path concurrently and returns their records merged
// in argument order. Files ending in ".ndjson" or ".ndjson.gz" are read line
// by line; anything else is decoded as a single document.
func ReadFiles(ctx context.Context, lg *zap.Logger, paths []string) (Batch, error) {
	results := make([]Batch, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			b, err := ReadFile(ctx, path)
			if err != nil {
				return err
			}
			lg.Info("Catalog file parsed",
				zap.String("path", path),
				zap.Int("suppliers", len(b.Suppliers)),
				zap.Int("products", len(b.Products)),
			)
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var merged Batch
	for _, b := range results {
		merged.Append(b)
	}
	return merged, nil
}

// ReadFile parses one catalog file.
func ReadFile(ctx context.Context, path string) (Batch, error) {
	r, err := Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = r.Close() }()

	var b Batch
	if isNDJSON(path) {
		b, err = ReadNDJSON(ctx, r)
	} else {
		b, err = ReadDocument(r)
	}
	if err != nil {
		return Batch{}, errors.Wrapf(err, "parse %s", path)
	}
	return b, nil
}

func isNDJSON(path string) bool {
	path = strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl")
}
