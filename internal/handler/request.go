package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/inventory-core/internal/domain/inventory"
	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

// maxBodyBytes bounds request payloads; inventory records are small.
const maxBodyBytes = 64 << 10

const (
	productMethods  = "GET, POST, PUT, DELETE"
	supplierMethods = "GET, POST"
)

// Request is a decoded inventory operation. The variants below are its only
// implementations; each maps to exactly one store call.
type Request interface {
	Operation() string
}

type (
	// ListProducts selects every product view.
	ListProducts struct{}
	// GetProduct selects one product view by identity.
	GetProduct struct{ ID int64 }
	// CreateProduct inserts a product.
	CreateProduct struct{ Fields product.Fields }
	// ReplaceProduct overwrites every mutable attribute of a product.
	ReplaceProduct struct {
		ID     int64
		Fields product.Fields
	}
	// RemoveProduct deletes a product by identity.
	RemoveProduct struct{ ID int64 }
	// ListSuppliers selects every supplier.
	ListSuppliers struct{}
	// CreateSupplier inserts a supplier.
	CreateSupplier struct{ Fields supplier.Fields }
)

func (ListProducts) Operation() string   { return "listProducts" }
func (GetProduct) Operation() string     { return "getProduct" }
func (CreateProduct) Operation() string  { return "createProduct" }
func (ReplaceProduct) Operation() string { return "replaceProduct" }
func (RemoveProduct) Operation() string  { return "removeProduct" }
func (ListSuppliers) Operation() string  { return "listSuppliers" }
func (CreateSupplier) Operation() string { return "createSupplier" }

// MalformedRequestError reports a request rejected before it reached a store.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return "malformed request: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedRequestError{Reason: errors.Errorf(format, args...).Error()}
}

// DecodeProductRequest maps a request on the products resource to its
// variant. GET with an id selector reads one product, GET without one lists.
// PUT and DELETE require the selector.
func DecodeProductRequest(r *http.Request) (Request, error) {
	switch r.Method {
	case http.MethodGet:
		id, ok, err := identity(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return ListProducts{}, nil
		}
		return GetProduct{ID: id}, nil

	case http.MethodPost:
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		f, err := decodeProductFields(body)
		if err != nil {
			return nil, err
		}
		return CreateProduct{Fields: f}, nil

	case http.MethodPut:
		id, err := requiredIdentity(r, "replace product")
		if err != nil {
			return nil, err
		}
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		f, err := decodeProductFields(body)
		if err != nil {
			return nil, err
		}
		return ReplaceProduct{ID: id, Fields: f}, nil

	case http.MethodDelete:
		id, err := requiredIdentity(r, "remove product")
		if err != nil {
			return nil, err
		}
		return RemoveProduct{ID: id}, nil

	default:
		return nil, inventory.Fail(r.Method+" products", inventory.ErrMethodNotAllowed, nil)
	}
}

// DecodeSupplierRequest maps a request on the suppliers resource to its
// variant. Only listing and creation are exposed.
func DecodeSupplierRequest(r *http.Request) (Request, error) {
	switch r.Method {
	case http.MethodGet:
		return ListSuppliers{}, nil

	case http.MethodPost:
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		f, err := decodeSupplierFields(body)
		if err != nil {
			return nil, err
		}
		return CreateSupplier{Fields: f}, nil

	default:
		return nil, inventory.Fail(r.Method+" suppliers", inventory.ErrMethodNotAllowed, nil)
	}
}

// identity parses the optional "id" query selector. An empty value counts as
// absent.
func identity(r *http.Request) (id int64, ok bool, err error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, malformed("id %q is not a positive integer", raw)
	}
	return id, true, nil
}

func requiredIdentity(r *http.Request, op string) (int64, error) {
	id, ok, err := identity(r)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, inventory.Fail(op, inventory.ErrMissingIdentifier, nil)
	}
	return id, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, malformed("request body is required")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, malformed("read body: %v", err)
	}
	if len(data) > maxBodyBytes {
		return nil, malformed("request body exceeds %d bytes", maxBodyBytes)
	}
	return data, nil
}
