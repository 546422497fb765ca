package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/productscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStore_Lookup(t *testing.T) {
	store := NewDefaultStore()
	ctx := context.Background()

	tests := []struct {
		name     string
		barcode  string
		wantName string
		wantErr  error
	}{
		{name: "EAN-13", barcode: "4901777046504", wantName: "Pocky Chocolate"},
		{name: "UPC-A", barcode: "049000006346", wantName: "Coca-Cola Classic"},
		{name: "ISBN-13", barcode: "9780201379624", wantName: "Design Patterns"},
		{name: "unknown barcode", barcode: "0000000000000", wantErr: domain.ErrProductNotFound},
		{name: "no prefix matching", barcode: "490177704650", wantErr: domain.ErrProductNotFound},
		{name: "no leading zero folding", barcode: "49000006346", wantErr: domain.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Lookup(ctx, tt.barcode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}

	assert.Equal(t, 8, store.Size())
}

func TestStore_LookupReturnsCopy(t *testing.T) {
	store := NewDefaultStore()
	ctx := context.Background()

	first, err := store.Lookup(ctx, "038000138416")
	require.NoError(t, err)
	first.Name = "Tampered"

	second, err := store.Lookup(ctx, "038000138416")
	require.NoError(t, err)
	assert.Equal(t, "Cheerios", second.Name)
}

func TestNewStore_CopiesAndNormalizes(t *testing.T) {
	entries := map[string]domain.ProductRecord{
		"012-345 678905": {Name: "Widget", Manufacturer: "Acme"},
		"n/a":            {Name: "Dropped"},
	}
	store := NewStore(entries)

	// Mutating the source map after construction must not leak into the store
	entries["111111111111"] = domain.ProductRecord{Name: "Late"}

	got, err := store.Lookup(context.Background(), "012345678905")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductRecord{
		Name:         "Widget",
		Manufacturer: "Acme",
		Category:     domain.UnknownValue,
		Description:  domain.UnknownValue,
	}, *got)
	assert.Equal(t, 1, store.Size())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("merges yaml entries over defaults", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.yaml")
		content := `
"4901777046504":
  name: Pocky Chocolate (Limited)
  manufacturer: Glico
  category: Snacks
  description: Seasonal flavour
"5-901234-123457":
  name: Test Product
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		store, err := LoadFile(path)
		require.NoError(t, err)

		got, err := store.Lookup(context.Background(), "4901777046504")
		require.NoError(t, err)
		assert.Equal(t, "Pocky Chocolate (Limited)", got.Name)

		got, err = store.Lookup(context.Background(), "5901234123457")
		require.NoError(t, err)
		assert.Equal(t, "Test Product", got.Name)
		assert.Equal(t, domain.UnknownValue, got.Manufacturer)

		assert.Equal(t, 9, store.Size())
	})

	t.Run("accepts json", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.json")
		content := `{"0012345678905": {"name": "Json Product", "manufacturer": "Acme", "category": "Tools", "description": "From JSON"}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		store, err := LoadFile(path)
		require.NoError(t, err)

		got, err := store.Lookup(context.Background(), "0012345678905")
		require.NoError(t, err)
		assert.Equal(t, "Json Product", got.Name)
		assert.Equal(t, "From JSON", got.Description)
	})

	t.Run("rejects keys that normalize to the same barcode", func(t *testing.T) {
		path := filepath.Join(dir, "duplicate.yaml")
		content := `
"5901234123457":
  name: Plain
"5-901234-123457":
  name: Hyphenated
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		for i := 0; i < 5; i++ {
			store, err := LoadFile(path)
			require.Error(t, err)
			assert.Nil(t, store)
			assert.Contains(t, err.Error(), `keys "5-901234-123457" and "5901234123457"`)
		}
	})

	t.Run("overriding a bundled barcode is not a collision", func(t *testing.T) {
		path := filepath.Join(dir, "override.yaml")
		content := `
"4901-777-046504":
  name: Pocky Override
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		store, err := LoadFile(path)
		require.NoError(t, err)
		got, err := store.Lookup(context.Background(), "4901777046504")
		require.NoError(t, err)
		assert.Equal(t, "Pocky Override", got.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}
