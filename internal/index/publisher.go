// Package index publishes metadata records to the search engine. The
// filesystem remains the source of truth; a failed publish is logged and
// never rolls back a metadata write.
package index

import (
	"context"

	"github.com/grayfield/photodex/internal/models"
)

// Publisher upserts metadata records into the search index.
type Publisher interface {
	// EnsureIndex creates the index and applies its settings. Idempotent;
	// called once on startup.
	EnsureIndex(ctx context.Context) error

	// Publish upserts a single record by order number.
	Publish(ctx context.Context, record *models.MetadataRecord) error

	// PublishBatch upserts many records in one call. Preferred during
	// reindex runs.
	PublishBatch(ctx context.Context, records []*models.MetadataRecord) error
}
