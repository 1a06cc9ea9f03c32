// Package service drives ingestion: the review policy and the reindex
// orchestrator that walks order directories on trigger.
package service

import "github.com/grayfield/photodex/internal/models"

// ReviewFlag decides needsReview for one processing pass.
//
// An order with valid prior metadata keeps its prior value untouched:
// a human's manual clear must survive any number of reindexes, and
// ingestion never re-flags a readable order. Only new orders (no prior
// file) and corrupted ones (unreadable prior file) get a computed flag,
// since there is no prior human decision to respect.
func ReviewFlag(prior *models.MetadataRecord, priorCorrupted bool, fetched *models.MetadataRecord) bool {
	if prior != nil && !priorCorrupted {
		return prior.NeedsReview
	}
	return fetched.IsCustom || priorCorrupted
}
