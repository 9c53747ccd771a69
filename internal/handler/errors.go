package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/inventory-core/internal/domain/inventory"
)

// statusFor maps a decode or store error to its HTTP status.
func statusFor(err error) int {
	var bad *MalformedRequestError
	switch {
	case errors.As(err, &bad), errors.Is(err, inventory.ErrMissingIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrConstraintViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		// ErrQueryFailure, ErrWriteFailure and anything unclassified.
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. The message carries the store's
// diagnostic text so the caller can decide whether to retry.
func writeError(w http.ResponseWriter, r *http.Request, op, allow string, err error) {
	status := statusFor(err)
	lg := zctx.From(r.Context())

	msg := err.Error()
	switch {
	case status == http.StatusMethodNotAllowed:
		w.Header().Set("Allow", allow)
		msg = "method not allowed"
	case status >= http.StatusInternalServerError:
		lg.Error("Store operation failed", zap.String("operation", op), zap.Error(err))
	default:
		lg.Debug("Request rejected", zap.String("operation", op), zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		encodeError(e, status, msg)
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
