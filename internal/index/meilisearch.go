package index

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/grayfield/photodex/internal/models"
)

// IndexUID is the Meilisearch index holding order metadata.
const IndexUID = "orders"

// primaryKey matches the JSON tag of MetadataRecord.OrderNumber.
const primaryKey = "orderNumber"

// Config configures the Meilisearch publisher.
type Config struct {
	// URL of the Meilisearch instance.
	URL string
	// APIKey is the admin key; empty for an unsecured local instance.
	APIKey string
}

// MeiliPublisher publishes records to a Meilisearch index.
type MeiliPublisher struct {
	client *meilisearch.Client
}

var _ Publisher = (*MeiliPublisher)(nil)

// NewMeiliPublisher creates a publisher for the configured instance. The
// instance is not contacted here; EnsureIndex does that.
func NewMeiliPublisher(cfg Config) *MeiliPublisher {
	return &MeiliPublisher{
		client: meilisearch.NewClient(meilisearch.ClientConfig{
			Host:   cfg.URL,
			APIKey: cfg.APIKey,
		}),
	}
}

// EnsureIndex creates the orders index and applies its settings. Both
// operations are idempotent, so this runs on every startup.
func (p *MeiliPublisher) EnsureIndex(ctx context.Context) error {
	// Creation is an async task upstream; an already-existing index fails
	// the task, not this call, so re-running on startup is harmless.
	_, err := p.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        IndexUID,
		PrimaryKey: primaryKey,
	})
	if err != nil {
		return fmt.Errorf("create index %s: %w", IndexUID, err)
	}

	_, err = p.client.Index(IndexUID).UpdateSettings(&meilisearch.Settings{
		RankingRules: []string{
			"words", "typo", "proximity", "attribute", "sort", "exactness",
		},
		SearchableAttributes: []string{
			"keywords", "productName", "options.value", "orderNumber", "orderComments",
		},
		FilterableAttributes: []string{
			"isCustom", "needsReview", "keywords", "options.key", "options.value",
		},
		SortableAttributes: []string{
			"lastIndexedUtc", "orderDate",
		},
	})
	if err != nil {
		return fmt.Errorf("update settings for index %s: %w", IndexUID, err)
	}
	return nil
}

// Publish upserts one record.
func (p *MeiliPublisher) Publish(ctx context.Context, record *models.MetadataRecord) error {
	return p.PublishBatch(ctx, []*models.MetadataRecord{record})
}

// PublishBatch upserts records by order number. The task is fire-and-forget;
// Meilisearch applies it asynchronously.
func (p *MeiliPublisher) PublishBatch(ctx context.Context, records []*models.MetadataRecord) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := p.client.Index(IndexUID).AddDocuments(records, primaryKey); err != nil {
		return fmt.Errorf("publish %d record(s): %w", len(records), err)
	}
	return nil
}
