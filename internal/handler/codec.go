package handler

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

// Product payloads replace the full record, so every field is required.
var productFieldNames = []string{"name", "description", "price", "stock", "photo", "supplier_id"}

var supplierFieldNames = []string{"name", "address", "email"}

// decodeProductFields decodes a product payload. Unknown fields, wrong JSON
// types, missing fields and values the columns cannot hold are rejected.
func decodeProductFields(data []byte) (product.Fields, error) {
	var (
		f    product.Fields
		seen = make(map[string]bool, len(productFieldNames))
	)
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		if seen[key] {
			return errors.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		var err error
		switch key {
		case "name":
			f.Name, err = d.Str()
		case "description":
			f.Description, err = d.Str()
		case "price":
			f.Price, err = decodeDecimal(d)
		case "stock":
			f.Stock, err = d.Int()
		case "photo":
			f.Photo, err = d.Str()
		case "supplier_id":
			f.SupplierID, err = d.Int64()
		default:
			return errors.Errorf("unknown field %q", key)
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return product.Fields{}, malformed("%v", err)
	}
	if err := requireFields(seen, productFieldNames); err != nil {
		return product.Fields{}, err
	}
	if err := f.CheckLimits(); err != nil {
		return product.Fields{}, malformed("%v", err)
	}
	return f, nil
}

// decodeSupplierFields decodes a supplier payload.
func decodeSupplierFields(data []byte) (supplier.Fields, error) {
	var (
		f    supplier.Fields
		seen = make(map[string]bool, len(supplierFieldNames))
	)
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		if seen[key] {
			return errors.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		var err error
		switch key {
		case "name":
			f.Name, err = d.Str()
		case "address":
			f.Address, err = d.Str()
		case "email":
			f.Email, err = d.Str()
		default:
			return errors.Errorf("unknown field %q", key)
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return supplier.Fields{}, malformed("%v", err)
	}
	if err := requireFields(seen, supplierFieldNames); err != nil {
		return supplier.Fields{}, err
	}
	return f, nil
}

// decodeObject decodes a single JSON object and rejects anything but
// whitespace after it.
func decodeObject(data []byte, f func(d *jx.Decoder, key string) error) error {
	d := jx.DecodeBytes(data)
	if err := d.Obj(f); err != nil {
		return err
	}
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after object")
	}
	return nil
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

func requireFields(seen map[string]bool, names []string) error {
	var missing []string
	for _, name := range names {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return malformed("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func encodeProductView(e *jx.Encoder, v product.View) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(v.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(v.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(v.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(v.Price.String())) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(v.Stock) })
		e.Field("photo", func(e *jx.Encoder) { e.Str(v.Photo) })
		e.Field("supplier_id", func(e *jx.Encoder) { e.Int64(v.SupplierID) })
		e.Field("supplier_name", func(e *jx.Encoder) { e.Str(v.SupplierName) })
	})
}

func encodeSupplier(e *jx.Encoder, s supplier.Supplier) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(s.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		e.Field("address", func(e *jx.Encoder) { e.Str(s.Address) })
		e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
	})
}

// encodeMessage writes {"message": msg}, with the created id when id > 0.
func encodeMessage(e *jx.Encoder, id int64, msg string) {
	e.Obj(func(e *jx.Encoder) {
		if id > 0 {
			e.Field("id", func(e *jx.Encoder) { e.Int64(id) })
		}
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}

func encodeError(e *jx.Encoder, code int, msg string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}
