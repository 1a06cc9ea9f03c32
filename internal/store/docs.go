// Package store provides filesystem access to the shared orders volume:
// per-order metadata files plus the named JSON documents the worker and the
// admin process use to coordinate. All writes go through an atomic
// temp-file-then-rename so a concurrent reader never observes a torn file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors for store operations. Use errors.Is() in calling code.
var (
	// ErrNotFound indicates the document or metadata file does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrCorrupted indicates the file exists but cannot be deserialized.
	// Orders in this state are eligible for incremental reprocessing.
	ErrCorrupted = errors.New("document corrupted")
)

// ReadJSON reads and decodes the JSON document at path.
// Returns ErrNotFound if the file is absent and ErrCorrupted (wrapping the
// decode error) if the contents are not valid JSON for v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}
	return nil
}

// WriteJSONAtomic encodes v and replaces the document at path atomically:
// write to a temp file in the same directory, fsync, then rename over the
// destination. Overwriting an existing document is expected.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Remove deletes the document at path. A document already gone is a no-op,
// not an error (trigger files race with external deletion).
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
