package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/RoyceAzure/lab/grocery/internal/service/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *CatalogService {
	catalog, err := seed.LoadCatalog("")
	require.NoError(t, err)
	return NewCatalogService(catalog)
}

func TestCatalogListAndFilter(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	all := catalog.ListProducts(ctx, "", "")
	require.NotEmpty(t, all)
	assert.Len(t, catalog.ListCategories(ctx), 6)

	fruits := catalog.ListProducts(ctx, "fruits", "")
	require.NotEmpty(t, fruits)
	for _, p := range fruits {
		assert.Equal(t, "fruits", p.Category)
	}

	byBrand := catalog.ListProducts(ctx, "", "AMUL")
	require.Len(t, byBrand, 1)
	assert.Equal(t, "4", byBrand[0].ID)

	byTag := catalog.ListProducts(ctx, "", "staples")
	assert.Len(t, byTag, 2)

	assert.Empty(t, catalog.ListProducts(ctx, "fruits", "rice"))
}

func TestCatalogGetProduct(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	p, ok := catalog.GetProduct(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Fresh Bananas", p.Name)
	assert.Equal(t, "40", p.Price.String())
	assert.Equal(t, "50", p.OriginalPrice.String())
	assert.True(t, p.InStock)

	chips, ok := catalog.GetProduct(ctx, "7")
	require.True(t, ok)
	assert.False(t, chips.InStock)
	assert.True(t, chips.OriginalPrice.IsZero())

	_, ok = catalog.GetProduct(ctx, "missing")
	assert.False(t, ok)
}

func TestCatalogReturnsCopies(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)

	p, ok := catalog.GetProduct(ctx, "1")
	require.True(t, ok)
	p.Tags[0] = "changed"

	again, _ := catalog.GetProduct(ctx, "1")
	assert.Equal(t, "fruit", again.Tags[0])
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := []byte("categories:\n  - id: bakery\n    name: Bakery\nproducts:\n  - id: b1\n    name: Bread\n    price: 45.5\n    category: bakery\n    stock: 3\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	loaded, err := seed.LoadCatalog(path)
	require.NoError(t, err)
	catalog := NewCatalogService(loaded)

	p, ok := catalog.GetProduct(context.Background(), "b1")
	require.True(t, ok)
	assert.Equal(t, "45.5", p.Price.String())

	_, err = seed.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
