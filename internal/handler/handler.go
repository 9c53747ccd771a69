package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

// Handler is the HTTP boundary of the inventory stores. It decodes each
// request once into a Request variant, runs exactly one store operation and
// shapes the outcome into a JSON response.
type Handler struct {
	products  product.Repository
	suppliers supplier.Repository
}

// NewHandler constructs a Handler with the required stores.
func NewHandler(products product.Repository, suppliers supplier.Repository) *Handler {
	return &Handler{
		products:  products,
		suppliers: suppliers,
	}
}

// Products serves /api/products.
func (h *Handler) Products() http.Handler {
	return h.route(DecodeProductRequest, productMethods)
}

// Suppliers serves /api/suppliers.
func (h *Handler) Suppliers() http.Handler {
	return h.route(DecodeSupplierRequest, supplierMethods)
}

func (h *Handler) route(decode func(*http.Request) (Request, error), allow string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := decode(r)
		if err != nil {
			writeError(w, r, "decode", allow, err)
			return
		}

		op := req.Operation()
		if l, ok := otelhttp.LabelerFromContext(ctx); ok {
			l.Add(attribute.String("inventory.operation", op))
		}

		resp, err := h.Execute(ctx, req)
		if err != nil {
			writeError(w, r, op, allow, err)
			return
		}

		zctx.From(ctx).Debug("Request served",
			zap.String("operation", op),
			zap.Int("status", resp.Status),
		)
		writeJSON(w, resp.Status, resp.encode)
	})
}
