// Package catalog reads bulk supplier and product records and loads them
// through the inventory stores.
//
// Two input shapes are supported: a single JSON document with "suppliers" and
// "products" arrays, and newline-delimited JSON where every line carries a
// "type" of "supplier" or "product". Either may be gzip-compressed.
package catalog

import (
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

// Product is a product record whose supplier is named either by id or by
// email. SupplierID wins when both are set.
type Product struct {
	product.Fields
	SupplierEmail string
}

// Batch is a set of parsed records, suppliers first.
type Batch struct {
	Suppliers []supplier.Fields
	Products  []Product
}

// Append adds the records of o to b, keeping their order.
func (b *Batch) Append(o Batch) {
	b.Suppliers = append(b.Suppliers, o.Suppliers...)
	b.Products = append(b.Products, o.Products...)
}

// Len is the total number of records.
func (b Batch) Len() int {
	return len(b.Suppliers) + len(b.Products)
}

// Open opens path for reading, transparently decompressing ".gz" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// normalizeEmail is the supplier deduplication key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
