//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/inventory-core/internal/domain/inventory"
	"github.com/xenking/inventory-core/internal/domain/product"
	"github.com/xenking/inventory-core/internal/domain/supplier"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "inventory",
				"POSTGRES_PASSWORD": "inventory",
				"POSTGRES_DB":       "inventory",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://inventory:inventory@%s:%s/inventory?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, url, WithMaxConns(4))
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := ApplySchema(ctx, testPool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	return m.Run()
}

// resetTables empties both tables and restarts identities so assigned IDs are
// predictable within a test.
func resetTables(t *testing.T) {
	t.Helper()

	_, err := testPool.Exec(context.Background(), `TRUNCATE products, suppliers RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func countProducts(t *testing.T) int {
	t.Helper()

	var n int
	err := testPool.QueryRow(context.Background(), `SELECT count(*) FROM products`).Scan(&n)
	require.NoError(t, err)
	return n
}

func createAcme(t *testing.T, suppliers *SupplierRepository) int64 {
	t.Helper()

	id, err := suppliers.Create(context.Background(), supplier.Fields{
		Name:    "Acme",
		Address: "1 Main St",
		Email:   "a@acme.test",
	})
	require.NoError(t, err)
	return id
}

func widget(supplierID int64) product.Fields {
	return product.Fields{
		Name:        "Widget",
		Description: "basic widget",
		Price:       decimal.NewFromInt(2999),
		Stock:       10,
		Photo:       "widget.png",
		SupplierID:  supplierID,
	}
}

func TestProductRepository_Scenario(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	suppliers := NewSupplierRepository(testPool)
	products := NewProductRepository(testPool)

	supplierID := createAcme(t, suppliers)
	assert.Equal(t, int64(1), supplierID)

	id, err := products.Create(ctx, widget(supplierID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "basic widget", got.Description)
	assert.True(t, decimal.NewFromInt(2999).Equal(got.Price), "price: %s", got.Price)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, "widget.png", got.Photo)
	assert.Equal(t, supplierID, got.SupplierID)
	assert.Equal(t, "Acme", got.SupplierName)

	replaced := widget(supplierID)
	replaced.Name = "Widget2"
	require.NoError(t, products.Update(ctx, id, replaced))

	got, err = products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Widget2", got.Name)

	require.NoError(t, products.Delete(ctx, id))

	_, err = products.GetByID(ctx, id)
	assert.True(t, errors.Is(err, inventory.ErrNotFound), "got %v", err)
}

func TestProductRepository_RoundTripFractionalPrice(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)
	supplierID := createAcme(t, NewSupplierRepository(testPool))

	in := widget(supplierID)
	in.Price = decimal.RequireFromString("29.99")

	id, err := products.Create(ctx, in)
	require.NoError(t, err)

	got, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, in.Price.Equal(got.Price), "price: %s", got.Price)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.SupplierID, got.SupplierID)
}

func TestProductRepository_JoinResolvesSupplierName(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	suppliers := NewSupplierRepository(testPool)
	products := NewProductRepository(testPool)

	acme := createAcme(t, suppliers)
	globex, err := suppliers.Create(ctx, supplier.Fields{Name: "Globex", Address: "42 Harbour Rd", Email: "sales@globex.test"})
	require.NoError(t, err)

	for _, sid := range []int64{acme, globex, acme} {
		_, err := products.Create(ctx, widget(sid))
		require.NoError(t, err)
	}

	all, err := suppliers.List(ctx)
	require.NoError(t, err)
	names := make(map[int64]string, len(all))
	for _, s := range all {
		names[s.ID] = s.Name
	}

	views, err := products.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	for i, v := range views {
		assert.Equal(t, names[v.SupplierID], v.SupplierName, "product %d", v.ID)
		if i > 0 {
			assert.Less(t, views[i-1].ID, v.ID, "list is ordered by id")
		}
	}
}

func TestProductRepository_CreateUnknownSupplier(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)

	_, err := products.Create(ctx, widget(404))
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "got %v", err)
	assert.Equal(t, 0, countProducts(t))
}

func TestProductRepository_NegativePriceViolatesCheck(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)

	in := widget(createAcme(t, NewSupplierRepository(testPool)))
	in.Price = decimal.NewFromInt(-1)

	_, err := products.Create(ctx, in)
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "got %v", err)
	assert.Equal(t, 0, countProducts(t))
}

func TestProductRepository_SubCentPriceIsNotRounded(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)

	in := widget(createAcme(t, NewSupplierRepository(testPool)))
	in.Price = decimal.RequireFromString("1.005")

	_, err := products.Create(ctx, in)
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "got %v", err)
	assert.Equal(t, 0, countProducts(t))

	// The column itself would have stored 1.01.
	var stored decimal.Decimal
	require.NoError(t, testPool.QueryRow(ctx, "SELECT $1::NUMERIC(12, 2)", decimal.RequireFromString("1.005")).Scan(&stored))
	assert.Equal(t, "1.01", stored.StringFixed(2))

	in.Price = decimal.RequireFromString("1.500")
	id, err := products.Create(ctx, in)
	require.NoError(t, err)
	got, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, in.Price.Equal(got.Price), "price: %s", got.Price)
}

func TestProductRepository_OutOfRangeValues(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)
	base := widget(createAcme(t, NewSupplierRepository(testPool)))

	price := base
	price.Price = decimal.New(1, 10)
	_, err := products.Create(ctx, price)
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "price: got %v", err)

	stock := base
	stock.Stock = 3_000_000_000
	_, err = products.Create(ctx, stock)
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "stock: got %v", err)

	id, err := products.Create(ctx, base)
	require.NoError(t, err)
	err = products.Update(ctx, id, price)
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "update: got %v", err)
	assert.Equal(t, 1, countProducts(t))
}

func TestClassifyWrite_NumericOverflowFromServer(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	supplierID := createAcme(t, NewSupplierRepository(testPool))

	_, err := testPool.Exec(ctx, createProductSQL, "Widget", "", decimal.New(1, 10), 1, "", supplierID)
	require.Error(t, err)

	got := classifyWrite("create product", err)
	assert.True(t, errors.Is(got, inventory.ErrConstraintViolation), "got %v", got)
}

func TestProductRepository_UpdateUnknownSupplier(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)

	id, err := products.Create(ctx, widget(createAcme(t, NewSupplierRepository(testPool))))
	require.NoError(t, err)

	err = products.Update(ctx, id, widget(404))
	assert.True(t, errors.Is(err, inventory.ErrConstraintViolation), "got %v", err)

	got, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.SupplierName)
}

func TestProductRepository_MissingIdentifier(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)

	id, err := products.Create(ctx, widget(createAcme(t, NewSupplierRepository(testPool))))
	require.NoError(t, err)

	replaced := widget(1)
	replaced.Name = "changed"
	err = products.Update(ctx, 0, replaced)
	assert.True(t, errors.Is(err, inventory.ErrMissingIdentifier), "got %v", err)

	err = products.Delete(ctx, 0)
	assert.True(t, errors.Is(err, inventory.ErrMissingIdentifier), "got %v", err)

	got, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 1, countProducts(t))
}

func TestProductRepository_MutateMissingRow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	products := NewProductRepository(testPool)
	supplierID := createAcme(t, NewSupplierRepository(testPool))

	err := products.Update(ctx, 999, widget(supplierID))
	assert.True(t, errors.Is(err, inventory.ErrNotFound), "got %v", err)

	err = products.Delete(ctx, 999)
	assert.True(t, errors.Is(err, inventory.ErrNotFound), "got %v", err)
}

func TestProductRepository_ListEmpty(t *testing.T) {
	resetTables(t)
	products := NewProductRepository(testPool)

	views, err := products.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestSupplierRepository_CreateAndList(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	suppliers := NewSupplierRepository(testPool)

	empty, err := suppliers.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	acme := createAcme(t, suppliers)
	globex, err := suppliers.Create(ctx, supplier.Fields{Name: "Globex", Address: "42 Harbour Rd", Email: "sales@globex.test"})
	require.NoError(t, err)

	all, err := suppliers.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, supplier.Supplier{ID: acme, Fields: supplier.Fields{Name: "Acme", Address: "1 Main St", Email: "a@acme.test"}}, all[0])
	assert.Equal(t, globex, all[1].ID)
}

func TestProductRepository_QueryFailureOnCancelledContext(t *testing.T) {
	products := NewProductRepository(testPool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := products.List(ctx)
	assert.True(t, errors.Is(err, inventory.ErrQueryFailure), "got %v", err)

	_, err = products.Create(ctx, widget(1))
	assert.True(t, errors.Is(err, inventory.ErrWriteFailure), "got %v", err)
}
