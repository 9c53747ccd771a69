package supplier

import "context"

// Fields holds the caller-supplied attributes of a supplier.
type Fields struct {
	Name    string
	Address string
	Email   string
}

// Supplier is a stored supplier row.
type Supplier struct {
	ID int64
	Fields
}

// Repository defines the supplier store. Suppliers are only created and
// listed; there is no update or delete.
type Repository interface {
	List(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, f Fields) (int64, error)
}
