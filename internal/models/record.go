// Package models defines the data structures shared across the photodex worker.
package models

import (
	"strings"
	"time"
)

// SchemaVersion tags every metadata record written to disk.
const SchemaVersion = "1"

// Option is one parsed product option, e.g. {Wood Finish, Tuscan Maple}.
// Options keep their parse order and are not deduplicated.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetadataRecord is the canonical per-order metadata document, stored as
// order.meta.json inside the order's photo directory. OrderNumber always
// equals the directory's base name.
type MetadataRecord struct {
	Version        string    `json:"version"`
	OrderNumber    string    `json:"orderNumber"`
	OrderDate      time.Time `json:"orderDate"`
	LastIndexedUtc time.Time `json:"lastIndexedUtc"`
	CustomerID     string    `json:"customerId"`
	OrderComments  string    `json:"orderComments"`
	ProductName    string    `json:"productName"`
	ProductID      string    `json:"productId"`
	ProductCode    string    `json:"productCode"`
	Options        []Option  `json:"options"`
	Keywords       []string  `json:"keywords"`
	IsCustom       bool      `json:"isCustom"`
	NeedsReview    bool      `json:"needsReview"`

	// PhotoPath is derived by readers for display; the ingestion path
	// never persists it.
	PhotoPath *string `json:"photoPath,omitempty"`
}

// HasComments reports whether the order carries any non-blank comments.
func (r *MetadataRecord) HasComments() bool {
	return strings.TrimSpace(r.OrderComments) != ""
}
