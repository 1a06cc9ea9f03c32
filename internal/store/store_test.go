package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grayfield/photodex/internal/models"
)

func TestOrderStore_ListSkipsNonNumericDirs(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1001", "57", "uploads", ".tmp", "20a3"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}
	// A stray file with a numeric name must not be listed either.
	require.NoError(t, os.WriteFile(filepath.Join(root, "999"), []byte("x"), 0o644))

	orders, err := NewOrderStore(root).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"57", "1001"}, orders)
}

func TestOrderStore_ReadClassifiesNewAndCorrupted(t *testing.T) {
	root := t.TempDir()
	s := NewOrderStore(root)

	require.NoError(t, os.Mkdir(filepath.Join(root, "100"), 0o755))
	_, err := s.Read("100")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.Mkdir(filepath.Join(root, "101"), 0o755))
	require.NoError(t, os.WriteFile(s.MetaPath("101"), []byte("{not json"), 0o644))
	_, err = s.Read("101")
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestOrderStore_WriteReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewOrderStore(root)
	require.NoError(t, os.Mkdir(filepath.Join(root, "2024"), 0o755))

	record := &models.MetadataRecord{
		Version:        models.SchemaVersion,
		OrderNumber:    "2024",
		OrderDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		LastIndexedUtc: time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC),
		ProductName:    "Hope Chest",
		Options:        []models.Option{{Key: "Wood Finish", Value: "Tuscan Maple"}},
		Keywords:       []string{"hope", "chest"},
		IsCustom:       true,
		NeedsReview:    true,
	}
	require.NoError(t, s.Write(record))

	got, err := s.Read("2024")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// Overwrite is expected, not an error.
	record.ProductName = "Hope Chest Deluxe"
	require.NoError(t, s.Write(record))
	got, err = s.Read("2024")
	require.NoError(t, err)
	assert.Equal(t, "Hope Chest Deluxe", got.ProductName)
}

func TestWriteJSONAtomic_CrashAfterTempLeavesOriginalIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order.meta.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]string{"orderNumber": "7"}))

	// Simulate a writer that crashed after creating its temp file but
	// before the rename: the temp file just sits there.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.meta.json.tmp-crashed"), []byte("garbage"), 0o644))

	var got map[string]string
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "7", got["orderNumber"])
}

func TestRemove_MissingFileIsNoOp(t *testing.T) {
	assert.NoError(t, Remove(filepath.Join(t.TempDir(), "absent.trigger")))
}
