package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/status"
	"github.com/grayfield/photodex/internal/store"
	"github.com/grayfield/photodex/internal/trigger"
)

type fakeFetcher struct {
	records map[string]*models.MetadataRecord
	fail    map[string]error
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, orderNumber string) (*models.MetadataRecord, error) {
	f.calls = append(f.calls, orderNumber)
	if err, ok := f.fail[orderNumber]; ok {
		return nil, err
	}
	record, ok := f.records[orderNumber]
	if !ok {
		return nil, fmt.Errorf("order %s: no upstream fixture", orderNumber)
	}
	// Copy so the orchestrator's mutations never leak into the fixture.
	clone := *record
	return &clone, nil
}

type fakePublisher struct {
	published []*models.MetadataRecord
	batches   int
	err       error
}

func (p *fakePublisher) EnsureIndex(context.Context) error { return p.err }

func (p *fakePublisher) Publish(ctx context.Context, record *models.MetadataRecord) error {
	return p.PublishBatch(ctx, []*models.MetadataRecord{record})
}

func (p *fakePublisher) PublishBatch(_ context.Context, records []*models.MetadataRecord) error {
	if p.err != nil {
		return p.err
	}
	p.batches++
	p.published = append(p.published, records...)
	return nil
}

type harness struct {
	root      string
	orders    *store.OrderStore
	reporter  *status.Reporter
	fetcher   *fakeFetcher
	publisher *fakePublisher
	reindexer *Reindexer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	orders := store.NewOrderStore(root)
	reporter := status.NewReporter(root)
	fetcher := &fakeFetcher{
		records: map[string]*models.MetadataRecord{},
		fail:    map[string]error{},
	}
	publisher := &fakePublisher{}
	reindexer := NewReindexer(orders, fetcher, publisher, reporter, trigger.NewGateway(root, 3))
	return &harness{
		root:      root,
		orders:    orders,
		reporter:  reporter,
		fetcher:   fetcher,
		publisher: publisher,
		reindexer: reindexer,
	}
}

func (h *harness) addOrder(t *testing.T, orderNumber string, upstream *models.MetadataRecord) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, orderNumber), 0o755))
	if upstream != nil {
		h.fetcher.records[orderNumber] = upstream
	}
}

func upstreamRecord(orderNumber, productName string) *models.MetadataRecord {
	return &models.MetadataRecord{
		Version:     models.SchemaVersion,
		OrderNumber: orderNumber,
		ProductName: productName,
		IsCustom:    len(productName) >= 6 && productName[:6] == "Custom",
	}
}

func TestRun_FullReindexIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Hope Chest"))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	first, err := h.orders.Read("100")
	require.NoError(t, err)

	require.NoError(t, h.reindexer.run(context.Background(), sig))
	second, err := h.orders.Read("100")
	require.NoError(t, err)

	assert.Equal(t, first.ProductName, second.ProductName)
	assert.Equal(t, first.NeedsReview, second.NeedsReview)
	assert.Equal(t, first.IsCustom, second.IsCustom)
	assert.False(t, second.LastIndexedUtc.Before(first.LastIndexedUtc))
}

func TestRun_SecondIncrementalPassProcessesNothing(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	h.addOrder(t, "200", upstreamRecord("200", "Custom Stool"))

	sig := trigger.Signal{Mode: models.ReindexIncremental, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))
	assert.Equal(t, []string{"100", "200"}, h.fetcher.calls)

	// With nothing changed on disk, a second pass finds no candidates.
	require.NoError(t, h.reindexer.run(context.Background(), sig))
	assert.Equal(t, []string{"100", "200"}, h.fetcher.calls, "no new upstream fetches")

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalOrders)
	assert.Equal(t, 0, st.ProcessedOrders)
}

func TestRun_HumanReviewClearIsSticky(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))

	// A human flagged this order; upstream says the product is not custom.
	require.NoError(t, h.orders.Write(&models.MetadataRecord{
		Version:     models.SchemaVersion,
		OrderNumber: "100",
		ProductName: "Old Name",
		NeedsReview: true,
	}))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	record, err := h.orders.Read("100")
	require.NoError(t, err)
	assert.True(t, record.NeedsReview, "reindex must not clear a human-set flag")
	assert.Equal(t, "Plain Bench", record.ProductName, "other fields still refresh")
}

func TestRun_NewCustomOrderIsFlagged(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "200", upstreamRecord("200", "Custom Hope Chest"))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceScheduled}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	record, err := h.orders.Read("200")
	require.NoError(t, err)
	assert.True(t, record.NeedsReview)
}

func TestRun_IncrementalRecoversCorruptedMetadata(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	h.addOrder(t, "200", upstreamRecord("200", "Plain Stool"))

	// 100 already has valid metadata; 200's file is garbage.
	require.NoError(t, h.orders.Write(&models.MetadataRecord{
		Version: models.SchemaVersion, OrderNumber: "100",
	}))
	require.NoError(t, os.WriteFile(h.orders.MetaPath("200"), []byte("{nope"), 0o644))

	sig := trigger.Signal{Mode: models.ReindexIncremental, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	// Only the corrupted order was a candidate.
	assert.Equal(t, []string{"200"}, h.fetcher.calls)

	record, err := h.orders.Read("200")
	require.NoError(t, err)
	assert.True(t, record.NeedsReview, "recovered orders are flagged for review")
}

func TestRun_DeletedMetadataCountsAsNewAgain(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "300", upstreamRecord("300", "Custom Cabinet"))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	// A human clears the flag, then the metadata file is removed externally.
	record, err := h.orders.Read("300")
	require.NoError(t, err)
	record.NeedsReview = false
	require.NoError(t, h.orders.Write(record))
	require.NoError(t, os.Remove(h.orders.MetaPath("300")))

	require.NoError(t, h.reindexer.run(context.Background(), sig))
	record, err = h.orders.Read("300")
	require.NoError(t, err)
	assert.True(t, record.NeedsReview, "no prior file means the flag is computed fresh")
}

func TestRun_PartialFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", nil)
	h.fetcher.fail["100"] = fmt.Errorf("upstream status 500")
	h.addOrder(t, "200", upstreamRecord("200", "Plain Bench"))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	_, err := h.orders.Read("100")
	assert.ErrorIs(t, err, store.ErrNotFound, "failed fetch writes nothing")

	_, err = h.orders.Read("200")
	require.NoError(t, err)

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, st.ProcessedOrders)
	assert.Equal(t, 2, st.TotalOrders)
	assert.False(t, st.IsRunning)
	assert.Nil(t, st.Error)

	// Only the successful order reached the index.
	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, "200", h.publisher.published[0].OrderNumber)
}

func TestRun_StatusLifecycle(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))

	// Seed a previous completed run; its timestamp must carry forward.
	prev := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)
	require.NoError(t, h.reporter.Write(models.ReindexStatus{LastCompletedRun: &prev}))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceScheduled}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Equal(t, models.ReindexFull, st.ReindexType)
	assert.NotEmpty(t, st.RunID)
	assert.Nil(t, st.CurrentOrder)
	require.NotNil(t, st.EndTime)
	require.NotNil(t, st.LastCompletedRun)
	assert.True(t, st.LastCompletedRun.After(prev), "lastCompletedRun advances on completion")
}

func TestRun_CancelledRunKeepsSentinel(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	require.NoError(t, trigger.Write(h.root, models.ReindexFull, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(ctx, sig))

	_, err := os.Stat(filepath.Join(h.root, trigger.FullTriggerName))
	assert.NoError(t, err, "cancelled runs leave the sentinel for the next start")

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Equal(t, 0, st.ProcessedOrders)
}

func TestRun_CompletedRunClearsSentinel(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	require.NoError(t, trigger.Write(h.root, models.ReindexFull, nil))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	_, err := os.Stat(filepath.Join(h.root, trigger.FullTriggerName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	h.publisher.err = fmt.Errorf("index unreachable")

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	require.NoError(t, h.reindexer.run(context.Background(), sig))

	// The filesystem write stands even though the index is stale.
	_, err := h.orders.Read("100")
	require.NoError(t, err)

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, st.ProcessedOrders)
	assert.Nil(t, st.Error)
}

func TestRun_MissingOrdersRootFailsRunOnly(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.RemoveAll(h.root))

	sig := trigger.Signal{Mode: models.ReindexFull, Source: trigger.SourceManual}
	err := h.reindexer.run(context.Background(), sig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan candidates")

	// The guarded wrapper absorbs the same failure without panicking, so
	// the poll loop survives until the volume appears.
	h.reindexer.runGuarded(context.Background(), sig)
}

func TestAbort_PatchesRunningStatus(t *testing.T) {
	h := newHarness(t)
	current := "150"
	require.NoError(t, h.reporter.Write(models.ReindexStatus{
		IsRunning:    true,
		CurrentOrder: &current,
	}))

	h.reindexer.abort(fmt.Errorf("scan candidates: disk gone"))

	st, err := h.reporter.Read()
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Nil(t, st.CurrentOrder)
	require.NotNil(t, st.Error)
	assert.Contains(t, *st.Error, "disk gone")
}

func TestRunLoop_PicksUpManualTrigger(t *testing.T) {
	h := newHarness(t)
	h.addOrder(t, "100", upstreamRecord("100", "Plain Bench"))
	require.NoError(t, trigger.Write(h.root, models.ReindexFull, nil))

	h.reindexer.SetPollInterval(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.reindexer.RunLoop(ctx)
		close(done)
	}()

	// The sentinel disappearing means the run completed.
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(h.root, trigger.FullTriggerName))
		return errors.Is(err, os.ErrNotExist)
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done

	_, err := h.orders.Read("100")
	assert.NoError(t, err)
}

func TestReviewFlag(t *testing.T) {
	custom := &models.MetadataRecord{IsCustom: true}
	plain := &models.MetadataRecord{}

	tests := []struct {
		name           string
		prior          *models.MetadataRecord
		priorCorrupted bool
		fetched        *models.MetadataRecord
		want           bool
	}{
		{"new custom order flagged", nil, false, custom, true},
		{"new plain order clear", nil, false, plain, false},
		{"corrupted prior always flagged", nil, true, plain, true},
		{"valid prior keeps true", &models.MetadataRecord{NeedsReview: true}, false, plain, true},
		{"valid prior keeps false even for custom", &models.MetadataRecord{}, false, custom, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReviewFlag(tt.prior, tt.priorCorrupted, tt.fetched)
			if got != tt.want {
				t.Errorf("ReviewFlag() = %v, want %v", got, tt.want)
			}
		})
	}
}
