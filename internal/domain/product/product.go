package product

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Fields holds every caller-supplied attribute of a product. Create and
// Update take the full set; there is no partial update.
type Fields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	// Photo is a file name or URL; image bytes are not stored here.
	Photo      string
	SupplierID int64
}

// View is a product row joined with the display name of its supplier.
type View struct {
	ID int64
	Fields
	SupplierName string
}

// Repository defines the product store. Errors are *inventory.Error values.
type Repository interface {
	// List returns every product with its supplier name. It returns an empty
	// slice, not an error, when there are no products.
	List(ctx context.Context) ([]View, error)
	GetByID(ctx context.Context, id int64) (*View, error)
	// Create inserts a product and returns its assigned identity.
	Create(ctx context.Context, f Fields) (int64, error)
	// Update replaces every mutable attribute of product id.
	Update(ctx context.Context, id int64, f Fields) error
	Delete(ctx context.Context, id int64) error
}

// Column limits of the products table: price is NUMERIC(12, 2) and stock is
// a 32-bit INTEGER.
const (
	PriceScale = 2
	MaxStock   = math.MaxInt32
	MinStock   = math.MinInt32
)

// MaxPrice is the exclusive upper bound of a NUMERIC(12, 2) price.
var MaxPrice = decimal.New(1, 10)

// CheckLimits reports whether f fits the column types without rounding or
// overflow. Sign checks are left to the schema.
func (f Fields) CheckLimits() error {
	if !f.Price.Equal(f.Price.Round(PriceScale)) {
		return errors.Errorf("price %s has more than %d fractional digits", f.Price, PriceScale)
	}
	if f.Price.Abs().GreaterThanOrEqual(MaxPrice) {
		return errors.Errorf("price %s out of range", f.Price)
	}
	if f.Stock > MaxStock || f.Stock < MinStock {
		return errors.Errorf("stock %d out of range", f.Stock)
	}
	return nil
}
