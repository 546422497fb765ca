package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/productscan/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Store is the immutable in-memory barcode to product table.
// It is built once and never written afterwards, so reads need no locking.
type Store struct {
	data map[string]domain.ProductRecord
}

// NewStore builds a store from a copy of entries. Keys are normalized to
// digits and blank fields receive the unknown sentinel; entries whose key
// has no digits are dropped.
func NewStore(entries map[string]domain.ProductRecord) *Store {
	data := make(map[string]domain.ProductRecord, len(entries))
	for key, record := range entries {
		normalized := domain.NormalizeBarcode(key)
		if normalized == "" {
			continue
		}
		data[normalized] = record.WithDefaults()
	}
	return &Store{data: data}
}

// NewDefaultStore builds a store from the bundled sample catalog
func NewDefaultStore() *Store {
	return NewStore(defaultProducts)
}

// LoadFile builds a store from the bundled catalog merged with the entries of
// a YAML or JSON file keyed by barcode. File entries win over bundled ones;
// two file keys that normalize to the same barcode are rejected.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var fileEntries map[string]domain.ProductRecord
	if err := yaml.Unmarshal(raw, &fileEntries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	merged := make(map[string]domain.ProductRecord, len(defaultProducts)+len(fileEntries))
	for k, v := range defaultProducts {
		merged[k] = v
	}
	seen := make(map[string]string, len(fileEntries))
	for k, v := range fileEntries {
		normalized := domain.NormalizeBarcode(k)
		if normalized == "" {
			continue
		}
		if other, dup := seen[normalized]; dup {
			first, second := other, k
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("catalog file %s: keys %q and %q both normalize to barcode %s",
				path, first, second, normalized)
		}
		seen[normalized] = k
		merged[normalized] = v
	}

	return NewStore(merged), nil
}

// Lookup returns a copy of the record stored under the exact normalized barcode
func (s *Store) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	record, exists := s.data[barcode]
	if !exists {
		return nil, domain.ErrProductNotFound
	}
	return &record, nil
}

// Size returns the number of products in the catalog
func (s *Store) Size() int {
	return len(s.data)
}
