package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grayfield/photodex/internal/index"
	"github.com/grayfield/photodex/internal/metrics"
	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/status"
	"github.com/grayfield/photodex/internal/store"
	"github.com/grayfield/photodex/internal/trigger"
)

// DefaultPollInterval is the trigger poll tick. Short enough that manual
// triggers feel immediate, long enough to avoid busy-spinning on I/O.
const DefaultPollInterval = time.Second

// Fetcher retrieves authoritative order data from upstream.
type Fetcher interface {
	Fetch(ctx context.Context, orderNumber string) (*models.MetadataRecord, error)
}

// Reindexer runs full and incremental reindex passes over the orders root.
// Strictly sequential: one run at a time, one order at a time.
type Reindexer struct {
	orders    *store.OrderStore
	fetcher   Fetcher
	publisher index.Publisher
	status    *status.Reporter
	triggers  *trigger.Gateway

	pollInterval time.Duration
	now          func() time.Time
	stats        *metrics.Collector
}

// NewReindexer wires the orchestrator to its collaborators.
func NewReindexer(orders *store.OrderStore, fetcher Fetcher, publisher index.Publisher, reporter *status.Reporter, triggers *trigger.Gateway) *Reindexer {
	return &Reindexer{
		orders:       orders,
		fetcher:      fetcher,
		publisher:    publisher,
		status:       reporter,
		triggers:     triggers,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		stats:        metrics.NewCollector(),
	}
}

// Stats exposes cumulative operation timings since worker start.
func (r *Reindexer) Stats() metrics.Snapshot {
	return r.stats.Snapshot()
}

// SetPollInterval overrides the trigger poll tick. Values <= 0 are ignored.
func (r *Reindexer) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// RunLoop polls the trigger gateway until ctx is cancelled. A run that
// fails is reported in the status document and the loop keeps going, so a
// bad pass never takes the worker down.
func (r *Reindexer) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	slog.Info("reindex loop started", "poll_interval", r.pollInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("reindex loop stopped")
			return
		case <-ticker.C:
			sig, ok := r.triggers.Check()
			if !ok {
				continue
			}
			r.runGuarded(ctx, sig)
		}
	}
}

// runGuarded runs one pass and converts escaped errors and panics into a
// status-document abort. Sentinels are kept on abort so the trigger is
// retried on a later tick.
func (r *Reindexer) runGuarded(ctx context.Context, sig trigger.Signal) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("reindex run panicked", "type", sig.Mode, "panic", rec)
			r.abort(fmt.Errorf("internal panic: %v", rec))
		}
	}()

	if err := r.run(ctx, sig); err != nil {
		slog.Error("reindex run failed", "type", sig.Mode, "error", err)
		r.abort(err)
	}
}

// run executes one reindex pass: snapshot candidates, process each order,
// finalize status. Per-order failures are logged and skipped; only setup
// failures (candidate scan, status write) escape.
func (r *Reindexer) run(ctx context.Context, sig trigger.Signal) error {
	runID := uuid.New().String()[:8]
	logger := slog.With("run_id", runID, "type", sig.Mode)

	orders, err := r.candidates(sig.Mode)
	if err != nil {
		return fmt.Errorf("scan candidates: %w", err)
	}

	prev, err := r.status.Read()
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	start := r.now().UTC()
	st := models.ReindexStatus{
		IsRunning:        true,
		RunID:            runID,
		ReindexType:      sig.Mode,
		StartTime:        &start,
		TotalOrders:      len(orders),
		LastCompletedRun: prev.LastCompletedRun,
	}
	if err := r.status.Write(st); err != nil {
		return fmt.Errorf("write initial status: %w", err)
	}

	logger.Info("reindex run started",
		"source", sig.Source, "total_orders", len(orders))
	if sig.Payload != nil && sig.Payload.RequestedBy != "" {
		logger.Info("run requested", "by", sig.Payload.RequestedBy, "reason", sig.Payload.Reason)
	}

	var batch []*models.MetadataRecord
	defer func() {
		// Publish whatever was written, even when the loop stops early.
		// A failed publish leaves the index stale until the next run; the
		// filesystem copy is already durable.
		if len(batch) == 0 {
			return
		}
		publishStart := time.Now()
		if err := r.publisher.PublishBatch(ctx, batch); err != nil {
			logger.Error("publish batch failed", "records", len(batch), "error", err)
			return
		}
		r.stats.RecordTiming(metrics.OpPublish, time.Since(publishStart))
	}()

	cancelled := false
	for _, orderNumber := range orders {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		current := orderNumber
		st.CurrentOrder = &current
		if err := r.status.Write(st); err != nil {
			return fmt.Errorf("write status: %w", err)
		}

		record, ok := r.processOrder(ctx, logger, orderNumber)
		if !ok {
			if ctx.Err() != nil {
				cancelled = true
				break
			}
			continue
		}

		batch = append(batch, record)
		st.ProcessedOrders++
	}

	end := r.now().UTC()
	st.IsRunning = false
	st.CurrentOrder = nil
	st.EndTime = &end
	st.LastCompletedRun = &end
	if err := r.status.Write(st); err != nil {
		return fmt.Errorf("write final status: %w", err)
	}

	if cancelled {
		// The sentinel stays so the next worker start resumes this work.
		logger.Info("reindex run cancelled",
			"processed", st.ProcessedOrders, "total", st.TotalOrders)
		return nil
	}

	r.triggers.Clear(sig.Mode)
	logger.Info("reindex run completed",
		"processed", st.ProcessedOrders, "total", st.TotalOrders,
		"duration", end.Sub(start))
	if snap := r.stats.Snapshot(); snap.Fetch != nil {
		logger.Debug("cumulative fetch timings",
			"count", snap.Fetch.Count, "avg_ms", snap.Fetch.AvgTimeMs, "max_ms", snap.Fetch.MaxTimeMs)
	}
	return nil
}

// processOrder handles one order end to end. Returns the written record,
// or ok=false when the order was skipped.
func (r *Reindexer) processOrder(ctx context.Context, logger *slog.Logger, orderNumber string) (*models.MetadataRecord, bool) {
	prior, err := r.orders.Read(orderNumber)
	priorCorrupted := errors.Is(err, store.ErrCorrupted)
	if err != nil && !priorCorrupted && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("skipping order, metadata unreadable", "order", orderNumber, "error", err)
		return nil, false
	}

	fetchStart := time.Now()
	record, err := r.fetcher.Fetch(ctx, orderNumber)
	if err != nil {
		// Nothing is written or published for a failed fetch; the order
		// keeps whatever metadata it had.
		logger.Warn("skipping order, fetch failed", "order", orderNumber, "error", err)
		return nil, false
	}
	r.stats.RecordTiming(metrics.OpFetch, time.Since(fetchStart))

	record.NeedsReview = ReviewFlag(prior, priorCorrupted, record)
	record.LastIndexedUtc = r.now().UTC()

	writeStart := time.Now()
	if err := r.orders.Write(record); err != nil {
		logger.Warn("skipping order, write failed", "order", orderNumber, "error", err)
		return nil, false
	}
	r.stats.RecordTiming(metrics.OpStoreWrite, time.Since(writeStart))
	return record, true
}

// candidates snapshots the order list for this run. Full passes take every
// numeric directory; incremental passes take only orders without readable
// metadata (new or corrupted).
func (r *Reindexer) candidates(mode models.ReindexType) ([]string, error) {
	all, err := r.orders.List()
	if err != nil {
		return nil, err
	}
	if mode == models.ReindexFull {
		return all, nil
	}

	var pending []string
	for _, orderNumber := range all {
		_, err := r.orders.Read(orderNumber)
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrCorrupted) {
			pending = append(pending, orderNumber)
		}
	}
	return pending, nil
}

// abort patches a running status document after an escaped error so UI
// readers are not stuck on isRunning=true forever.
func (r *Reindexer) abort(runErr error) {
	st, err := r.status.Read()
	if err != nil || !st.IsRunning {
		return
	}
	end := r.now().UTC()
	msg := runErr.Error()
	st.IsRunning = false
	st.CurrentOrder = nil
	st.EndTime = &end
	st.Error = &msg
	if err := r.status.Write(st); err != nil {
		slog.Error("write abort status failed", "error", err)
	}
}
