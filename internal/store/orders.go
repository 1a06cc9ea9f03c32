package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/grayfield/photodex/internal/models"
)

// MetaFileName is the per-order metadata document inside each order directory.
const MetaFileName = "order.meta.json"

// OrderStore reads and writes order metadata under the orders root.
// One subdirectory per order, named by the numeric order number.
type OrderStore struct {
	root string
}

// NewOrderStore creates a store rooted at the shared orders directory.
func NewOrderStore(root string) *OrderStore {
	return &OrderStore{root: root}
}

// List enumerates the order numbers present on disk: immediate
// subdirectories whose base name parses as a non-negative integer.
// Non-numeric directories are ignored. Results are sorted numerically.
func (s *OrderStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read orders root: %w", err)
	}

	var orders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(entry.Name()); err != nil || n < 0 {
			continue
		}
		orders = append(orders, entry.Name())
	}

	sort.Slice(orders, func(i, j int) bool {
		a, _ := strconv.Atoi(orders[i])
		b, _ := strconv.Atoi(orders[j])
		return a < b
	})
	return orders, nil
}

// Read loads the metadata record for one order. Returns ErrNotFound when no
// metadata file exists (a "new" order) and ErrCorrupted when the file is
// present but undeserializable. A record that deserializes is returned
// as-is; there is no deep validation.
func (s *OrderStore) Read(orderNumber string) (*models.MetadataRecord, error) {
	var record models.MetadataRecord
	if err := ReadJSON(s.MetaPath(orderNumber), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Write persists the metadata record into its order directory, replacing any
// existing file atomically.
func (s *OrderStore) Write(record *models.MetadataRecord) error {
	return WriteJSONAtomic(s.MetaPath(record.OrderNumber), record)
}

// MetaPath returns the metadata file path for an order.
func (s *OrderStore) MetaPath(orderNumber string) string {
	return filepath.Join(s.root, orderNumber, MetaFileName)
}
