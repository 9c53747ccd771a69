package inventory

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	driverErr := errors.New("insert or update on table violates foreign key constraint")
	err := Fail("create product", ErrConstraintViolation, driverErr)

	assert.True(t, errors.Is(err, ErrConstraintViolation))
	assert.True(t, errors.Is(err, driverErr), "driver error must stay reachable")
	assert.False(t, errors.Is(err, ErrWriteFailure))
	assert.Equal(t, "create product: constraint violation: insert or update on table violates foreign key constraint", err.Error())
}

func TestError_WrappedTwice(t *testing.T) {
	err := errors.Wrap(Fail("get product 7", ErrNotFound, nil), "handler")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "handler: get product 7: not found", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: Fail("op", ErrNotFound, nil), want: ErrNotFound},
		{name: "missing identifier", err: Fail("op", ErrMissingIdentifier, nil), want: ErrMissingIdentifier},
		{name: "write failure", err: Fail("op", ErrWriteFailure, errors.New("disk full")), want: ErrWriteFailure},
		{name: "query failure", err: Fail("op", ErrQueryFailure, errors.New("conn reset")), want: ErrQueryFailure},
		{name: "bare sentinel", err: ErrMethodNotAllowed, want: ErrMethodNotAllowed},
		{name: "unclassified", err: errors.New("boom"), want: nil},
		{name: "nil", err: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
