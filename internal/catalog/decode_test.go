package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const document = `{
  "suppliers": [
    {"name": "Acme", "address": "1 Main St", "email": "a@acme.test"}
  ],
  "products": [
    {"name": "Widget", "description": "basic widget", "price": 29.99, "stock": 10, "photo": "widget.png", "supplier_email": "a@acme.test"},
    {"name": "Gear", "description": "", "price": 3, "stock": 0, "photo": "", "supplier_id": 7}
  ],
  "generated_at": "2024-01-01"
}`

const ndjson = `{"type":"supplier","name":"Acme","address":"1 Main St","email":"a@acme.test"}

{"type":"product","name":"Widget","description":"basic widget","price":29.99,"stock":10,"photo":"widget.png","supplier_email":"A@ACME.test"}
{"type":"product","name":"Gear","price":3,"stock":1,"supplier_id":7}
`

func TestReadDocument(t *testing.T) {
	b, err := ReadDocument(strings.NewReader(document))
	require.NoError(t, err)

	require.Len(t, b.Suppliers, 1)
	assert.Equal(t, "Acme", b.Suppliers[0].Name)
	assert.Equal(t, "a@acme.test", b.Suppliers[0].Email)

	require.Len(t, b.Products, 2)
	assert.True(t, decimal.RequireFromString("29.99").Equal(b.Products[0].Price))
	assert.Equal(t, "a@acme.test", b.Products[0].SupplierEmail)
	assert.Equal(t, int64(7), b.Products[1].SupplierID)
	assert.Equal(t, 3, b.Len())
}

func TestReadDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "unknown product field", doc: `{"products":[{"name":"x","supplier_id":1,"colour":"red"}]}`, want: "unknown field"},
		{name: "price as string", doc: `{"products":[{"name":"x","supplier_id":1,"price":"1.00"}]}`, want: "price"},
		{name: "product without supplier", doc: `{"products":[{"name":"x"}]}`, want: "names no supplier"},
		{name: "supplier without email", doc: `{"suppliers":[{"name":"Acme"}]}`, want: "email is required"},
		{name: "price finer than cents", doc: `{"products":[{"name":"x","supplier_id":1,"price":1.005}]}`, want: "fractional digits"},
		{name: "stock beyond int4", doc: `{"products":[{"name":"x","supplier_id":1,"stock":3000000000}]}`, want: "stock 3000000000 out of range"},
		{name: "not an object", doc: `[]`, want: "decode catalog document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadNDJSON(t *testing.T) {
	b, err := ReadNDJSON(context.Background(), strings.NewReader(ndjson))
	require.NoError(t, err)

	require.Len(t, b.Suppliers, 1)
	assert.Equal(t, "Acme", b.Suppliers[0].Name)
	assert.Equal(t, "1 Main St", b.Suppliers[0].Address)

	require.Len(t, b.Products, 2)
	assert.Equal(t, "Widget", b.Products[0].Name)
	assert.Equal(t, "A@ACME.test", b.Products[0].SupplierEmail)
	assert.Equal(t, 10, b.Products[0].Stock)
	assert.Equal(t, int64(7), b.Products[1].SupplierID)
}

func TestReadNDJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "missing type", input: `{"name":"Acme","email":"a@acme.test"}`, want: "line 1: missing record type"},
		{name: "unknown type", input: "\n" + `{"type":"coupon","name":"X"}`, want: "line 2: unknown record type"},
		{name: "unknown field", input: `{"type":"supplier","name":"Acme","email":"a@acme.test","fax":"1"}`, want: "unknown field"},
		{name: "broken json", input: `{"type":"supplier",`, want: "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNDJSON(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadNDJSON_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadNDJSON(ctx, strings.NewReader(ndjson))
	require.ErrorIs(t, err, context.Canceled)
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "catalog.json.gz")
	linesPath := filepath.Join(dir, "extra.ndjson.gz")
	plainPath := filepath.Join(dir, "plain.json")

	writeGzip(t, docPath, document)
	writeGzip(t, linesPath, ndjson)
	require.NoError(t, os.WriteFile(plainPath, []byte(`{"suppliers":[{"name":"Globex","address":"","email":"g@globex.test"}]}`), 0o600))

	b, err := ReadFiles(context.Background(), zap.NewNop(), []string{docPath, linesPath, plainPath})
	require.NoError(t, err)

	require.Len(t, b.Suppliers, 3)
	assert.Equal(t, "Acme", b.Suppliers[0].Name)
	assert.Equal(t, "Acme", b.Suppliers[1].Name)
	assert.Equal(t, "Globex", b.Suppliers[2].Name)
	assert.Len(t, b.Products, 4)
}

func TestReadFiles_MissingFile(t *testing.T) {
	_, err := ReadFiles(context.Background(), zap.NewNop(), []string{filepath.Join(t.TempDir(), "absent.ndjson.gz")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsNDJSON(t *testing.T) {
	assert.True(t, isNDJSON("a.ndjson"))
	assert.True(t, isNDJSON("a.ndjson.gz"))
	assert.True(t, isNDJSON("a.jsonl"))
	assert.False(t, isNDJSON("a.json"))
	assert.False(t, isNDJSON("a.json.gz"))
}
