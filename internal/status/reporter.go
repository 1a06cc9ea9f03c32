// Package status maintains the shared reindex.status.json document: a
// single-writer progress report the admin UI polls while a run is active.
package status

import (
	"errors"
	"path/filepath"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/store"
)

// FileName is the singleton status document under the orders root.
const FileName = "reindex.status.json"

// Reporter reads and writes the status document. The orchestrator is the
// only writer; atomic replacement keeps concurrent readers safe.
type Reporter struct {
	path string
}

// NewReporter creates a reporter storing the status document under root.
func NewReporter(root string) *Reporter {
	return &Reporter{path: filepath.Join(root, FileName)}
}

// Read returns the current status. An absent document yields a zero status;
// a corrupted document is also treated as zero (it will be rewritten whole
// on the next run) rather than surfaced as an error.
func (r *Reporter) Read() (models.ReindexStatus, error) {
	var st models.ReindexStatus
	err := store.ReadJSON(r.path, &st)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrCorrupted) {
		return models.ReindexStatus{}, nil
	}
	if err != nil {
		return models.ReindexStatus{}, err
	}
	return st, nil
}

// Write replaces the status document atomically.
func (r *Reporter) Write(st models.ReindexStatus) error {
	return store.WriteJSONAtomic(r.path, &st)
}
