package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/jx"
)

// Response is the shaped outcome of a successful store operation.
type Response struct {
	Status int
	encode func(e *jx.Encoder)
}

// Execute runs the store operation selected by req. Store errors are returned
// unchanged; callers map them with statusFor.
func (h *Handler) Execute(ctx context.Context, req Request) (*Response, error) {
	switch req := req.(type) {
	case ListProducts:
		views, err := h.products.List(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, encode: func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range views {
					encodeProductView(e, v)
				}
			})
		}}, nil

	case GetProduct:
		v, err := h.products.GetByID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, encode: func(e *jx.Encoder) {
			encodeProductView(e, *v)
		}}, nil

	case CreateProduct:
		id, err := h.products.Create(ctx, req.Fields)
		if err != nil {
			return nil, err
		}
		return message(http.StatusCreated, id, "product created"), nil

	case ReplaceProduct:
		if err := h.products.Update(ctx, req.ID, req.Fields); err != nil {
			return nil, err
		}
		return message(http.StatusOK, 0, "product updated"), nil

	case RemoveProduct:
		if err := h.products.Delete(ctx, req.ID); err != nil {
			return nil, err
		}
		return message(http.StatusOK, 0, "product deleted"), nil

	case ListSuppliers:
		suppliers, err := h.suppliers.List(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, encode: func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range suppliers {
					encodeSupplier(e, s)
				}
			})
		}}, nil

	case CreateSupplier:
		id, err := h.suppliers.Create(ctx, req.Fields)
		if err != nil {
			return nil, err
		}
		return message(http.StatusCreated, id, "supplier created"), nil

	default:
		panic(fmt.Sprintf("unhandled request variant %T", req))
	}
}

func message(status int, id int64, msg string) *Response {
	return &Response{Status: status, encode: func(e *jx.Encoder) {
		encodeMessage(e, id, msg)
	}}
}
