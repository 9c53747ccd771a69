package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/inventory-core/internal/domain/inventory"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

const (
	listSuppliersSQL = `SELECT id, name, address, email FROM suppliers ORDER BY id`

	createSupplierSQL = `INSERT INTO suppliers (name, address, email) VALUES ($1, $2, $3) RETURNING id`
)

var _ supplier.Repository = (*SupplierRepository)(nil)

// SupplierRepository implements supplier.Repository backed by PostgreSQL.
type SupplierRepository struct {
	pool *pgxpool.Pool
}

// NewSupplierRepository returns a SupplierRepository that uses the given pool.
func NewSupplierRepository(pool *pgxpool.Pool) *SupplierRepository {
	return &SupplierRepository{pool: pool}
}

// List returns every supplier ordered by ID.
func (r *SupplierRepository) List(ctx context.Context) ([]supplier.Supplier, error) {
	ctx = withOperation(ctx, "supplier.list")

	rows, err := r.pool.Query(ctx, listSuppliersSQL)
	if err != nil {
		return nil, inventory.Fail("list suppliers", inventory.ErrQueryFailure, err)
	}

	suppliers, err := pgx.CollectRows(rows, scanSupplier)
	if err != nil {
		return nil, inventory.Fail("list suppliers", inventory.ErrQueryFailure, err)
	}
	if suppliers == nil {
		suppliers = []supplier.Supplier{}
	}
	return suppliers, nil
}

// Create inserts a supplier and returns its identity. Every storage error is
// reported as inventory.ErrWriteFailure.
func (r *SupplierRepository) Create(ctx context.Context, f supplier.Fields) (int64, error) {
	ctx = withOperation(ctx, "supplier.create")

	var id int64
	if err := r.pool.QueryRow(ctx, createSupplierSQL, f.Name, f.Address, f.Email).Scan(&id); err != nil {
		return 0, inventory.Fail("create supplier", inventory.ErrWriteFailure, err)
	}
	return id, nil
}

func scanSupplier(row pgx.CollectableRow) (supplier.Supplier, error) {
	var s supplier.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Email)
	return s, err
}
