package catalog

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/inventory-core/internal/domain/supplier"
)

// maxLineBytes bounds a single NDJSON record.
const maxLineBytes = 1 << 20

// ReadDocument decodes a {"suppliers":[...],"products":[...]} document.
func ReadDocument(r io.Reader) (Batch, error) {
	var b Batch
	d := jx.Decode(r, 64<<10)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "suppliers":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := decodeSupplier(d)
				if err != nil {
					return errors.Wrapf(err, "supplier %d", len(b.Suppliers))
				}
				b.Suppliers = append(b.Suppliers, s)
				return nil
			})
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return errors.Wrapf(err, "product %d", len(b.Products))
				}
				b.Products = append(b.Products, p)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Batch{}, errors.Wrap(err, "decode catalog document")
	}
	return b, nil
}

// ReadNDJSON decodes newline-delimited records. Blank lines are skipped;
// any malformed line aborts with its line number.
func ReadNDJSON(ctx context.Context, r io.Reader) (Batch, error) {
	var b Batch

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		if err := decodeLine(data, &b); err != nil {
			return Batch{}, errors.Wrapf(err, "line %d", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Batch{}, errors.Wrap(err, "scan")
	}
	return b, nil
}

// lineRecord is the union of both record shapes; Type selects the one kept.
type lineRecord struct {
	Type     string
	Supplier supplier.Fields
	Product  Product
}

func decodeLine(data []byte, b *Batch) error {
	var rec lineRecord
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key == "type" {
			v, err := d.Str()
			rec.Type = v
			return err
		}
		if key == "name" {
			v, err := d.Str()
			rec.Supplier.Name, rec.Product.Name = v, v
			return wrapField(err, key)
		}
		if handled, err := decodeProductField(d, key, &rec.Product); handled {
			return err
		}
		if handled, err := decodeSupplierField(d, key, &rec.Supplier); handled {
			return err
		}
		return errors.Errorf("unknown field %q", key)
	})
	if err != nil {
		return err
	}

	switch rec.Type {
	case "supplier":
		if err := validateSupplier(rec.Supplier); err != nil {
			return err
		}
		b.Suppliers = append(b.Suppliers, rec.Supplier)
	case "product":
		if err := validateProduct(rec.Product); err != nil {
			return err
		}
		b.Products = append(b.Products, rec.Product)
	case "":
		return errors.New("missing record type")
	default:
		return errors.Errorf("unknown record type %q", rec.Type)
	}
	return nil
}

func decodeSupplier(d *jx.Decoder) (supplier.Fields, error) {
	var s supplier.Fields
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if handled, err := decodeSupplierField(d, key, &s); handled {
			return err
		}
		return errors.Errorf("unknown field %q", key)
	})
	if err != nil {
		return supplier.Fields{}, err
	}
	return s, validateSupplier(s)
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if handled, err := decodeProductField(d, key, &p); handled {
			return err
		}
		return errors.Errorf("unknown field %q", key)
	})
	if err != nil {
		return Product{}, err
	}
	return p, validateProduct(p)
}

func decodeSupplierField(d *jx.Decoder, key string, s *supplier.Fields) (bool, error) {
	var err error
	switch key {
	case "name":
		s.Name, err = d.Str()
	case "address":
		s.Address, err = d.Str()
	case "email":
		s.Email, err = d.Str()
	default:
		return false, nil
	}
	return true, wrapField(err, key)
}

func decodeProductField(d *jx.Decoder, key string, p *Product) (bool, error) {
	var err error
	switch key {
	case "name":
		p.Name, err = d.Str()
	case "description":
		p.Description, err = d.Str()
	case "price":
		p.Price, err = decodeDecimal(d)
	case "stock":
		p.Stock, err = d.Int()
	case "photo":
		p.Photo, err = d.Str()
	case "supplier_id":
		p.SupplierID, err = d.Int64()
	case "supplier_email":
		p.SupplierEmail, err = d.Str()
	default:
		return false, nil
	}
	return true, wrapField(err, key)
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() != jx.Number {
		return decimal.Decimal{}, errors.New("must be a number")
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(string(n))
}

func wrapField(err error, key string) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}

func validateSupplier(s supplier.Fields) error {
	if s.Name == "" {
		return errors.New("supplier name is required")
	}
	if normalizeEmail(s.Email) == "" {
		return errors.New("supplier email is required")
	}
	return nil
}

func validateProduct(p Product) error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.SupplierID == 0 && normalizeEmail(p.SupplierEmail) == "" {
		return errors.Errorf("product %q names no supplier", p.Name)
	}
	if err := p.CheckLimits(); err != nil {
		return errors.Wrapf(err, "product %q", p.Name)
	}
	return nil
}
