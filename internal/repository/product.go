package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/inventory-core/internal/domain/inventory"
	"github.com/xenking/inventory-core/internal/domain/product"
)

// productViewSelect pairs every product column with exactly one supplier
// column in a single join.
const productViewSelect = `SELECT p.id, p.name, p.description, p.price, p.stock, p.photo, p.supplier_id, s.name
		FROM products p JOIN suppliers s ON s.id = p.supplier_id`

const (
	listProductsSQL = productViewSelect + ` ORDER BY p.id`

	getProductByIDSQL = productViewSelect + ` WHERE p.id = $1`

	createProductSQL = `INSERT INTO products (name, description, price, stock, photo, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, photo = $6, supplier_id = $7
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products joined with their supplier name, ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.View, error) {
	const op = "list products"
	ctx = withOperation(ctx, "product.list")

	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, inventory.Fail(op, inventory.ErrQueryFailure, err)
	}

	views, err := pgx.CollectRows(rows, scanProductView)
	if err != nil {
		return nil, inventory.Fail(op, inventory.ErrQueryFailure, err)
	}
	if views == nil {
		views = []product.View{}
	}
	return views, nil
}

// GetByID returns a single joined product. It returns inventory.ErrNotFound
// when no product has the given ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.View, error) {
	op := fmt.Sprintf("get product %d", id)
	ctx = withOperation(ctx, "product.get")

	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, inventory.Fail(op, inventory.ErrQueryFailure, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanProductView)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.Fail(op, inventory.ErrNotFound, err)
		}
		return nil, inventory.Fail(op, inventory.ErrQueryFailure, err)
	}
	return &v, nil
}

// Create inserts a product and returns the identity assigned by the database.
// The supplier reference is checked only by the foreign key. Values the
// columns would round or overflow are rejected before the statement runs.
func (r *ProductRepository) Create(ctx context.Context, f product.Fields) (int64, error) {
	if err := f.CheckLimits(); err != nil {
		return 0, inventory.Fail("create product", inventory.ErrConstraintViolation, err)
	}
	ctx = withOperation(ctx, "product.create")

	var id int64
	err := r.pool.QueryRow(ctx, createProductSQL,
		f.Name, f.Description, f.Price, f.Stock, f.Photo, f.SupplierID,
	).Scan(&id)
	if err != nil {
		return 0, classifyWrite("create product", err)
	}
	return id, nil
}

// Update replaces every mutable column of product id in one statement.
// It returns inventory.ErrNotFound when no row matched.
func (r *ProductRepository) Update(ctx context.Context, id int64, f product.Fields) error {
	if id == 0 {
		return inventory.Fail("update product", inventory.ErrMissingIdentifier, nil)
	}
	op := fmt.Sprintf("update product %d", id)
	if err := f.CheckLimits(); err != nil {
		return inventory.Fail(op, inventory.ErrConstraintViolation, err)
	}
	ctx = withOperation(ctx, "product.update")

	tag, err := r.pool.Exec(ctx, updateProductSQL,
		id, f.Name, f.Description, f.Price, f.Stock, f.Photo, f.SupplierID,
	)
	if err != nil {
		return classifyWrite(op, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.Fail(op, inventory.ErrNotFound, nil)
	}
	return nil
}

// Delete removes product id. It returns inventory.ErrNotFound when no row
// matched.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return inventory.Fail("delete product", inventory.ErrMissingIdentifier, nil)
	}
	op := fmt.Sprintf("delete product %d", id)
	ctx = withOperation(ctx, "product.delete")

	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return inventory.Fail(op, inventory.ErrWriteFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.Fail(op, inventory.ErrNotFound, nil)
	}
	return nil
}

func scanProductView(row pgx.CollectableRow) (product.View, error) {
	var v product.View
	err := row.Scan(
		&v.ID, &v.Name, &v.Description, &v.Price, &v.Stock, &v.Photo, &v.SupplierID,
		&v.SupplierName,
	)
	return v, err
}
