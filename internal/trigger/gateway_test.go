package trigger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grayfield/photodex/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestGateway(t *testing.T, hour int, now time.Time) (*Gateway, string) {
	t.Helper()
	root := t.TempDir()
	g := NewGateway(root, hour)
	g.now = fixedClock(now)
	return g, root
}

func TestCheck_StartupForcesIncremental(t *testing.T) {
	g, _ := newTestGateway(t, 3, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))

	sig, ok := g.Check()
	require.True(t, ok)
	assert.Equal(t, models.ReindexIncremental, sig.Mode)
	assert.Equal(t, SourceStartup, sig.Source)

	// The startup pass fires exactly once.
	_, ok = g.Check()
	assert.False(t, ok)
}

func TestCheck_FullBeatsIncremental(t *testing.T) {
	g, root := newTestGateway(t, 3, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, Write(root, models.ReindexFull, nil))
	require.NoError(t, Write(root, models.ReindexIncremental, nil))

	sig, ok := g.Check()
	require.True(t, ok)
	assert.Equal(t, models.ReindexFull, sig.Mode)
	assert.Equal(t, SourceManual, sig.Source)

	// Clearing the full run leaves the incremental sentinel for the next tick.
	g.Clear(models.ReindexFull)
	assert.NoFileExists(t, filepath.Join(root, FullTriggerName))
	assert.FileExists(t, filepath.Join(root, IncrementalTriggerName))

	sig, ok = g.Check()
	require.True(t, ok)
	assert.Equal(t, models.ReindexIncremental, sig.Mode)
	assert.Equal(t, SourceManual, sig.Source)
}

func TestCheck_ScheduledFiresOncePerDay(t *testing.T) {
	start := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	g, _ := newTestGateway(t, 3, start)

	// Consume the startup pass.
	_, ok := g.Check()
	require.True(t, ok)

	// Before the target hour: nothing.
	_, ok = g.Check()
	assert.False(t, ok)

	// At the target hour: one scheduled run.
	g.now = fixedClock(time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC))
	sig, ok := g.Check()
	require.True(t, ok)
	assert.Equal(t, SourceScheduled, sig.Source)

	// Later the same day: not again.
	g.now = fixedClock(time.Date(2026, 8, 31, 17, 0, 0, 0, time.UTC))
	_, ok = g.Check()
	assert.False(t, ok)

	// Next day past the hour: fires again.
	g.now = fixedClock(time.Date(2026, 9, 1, 3, 5, 0, 0, time.UTC))
	_, ok = g.Check()
	assert.True(t, ok)
}

func TestCheck_StartupAfterHourSuppressesSameDaySchedule(t *testing.T) {
	g, _ := newTestGateway(t, 3, time.Date(2026, 8, 31, 3, 30, 0, 0, time.UTC))

	sig, ok := g.Check()
	require.True(t, ok)
	assert.Equal(t, SourceStartup, sig.Source)

	// The startup pass already covered today's window.
	_, ok = g.Check()
	assert.False(t, ok)
}

func TestPayload_RoundTripAndMalformed(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	g, root := newTestGateway(t, 3, now)

	require.NoError(t, Write(root, models.ReindexFull, &Payload{
		RequestedBy: "ops",
		RequestedAt: now,
		Reason:      "pricing update",
	}))

	sig, ok := g.Check()
	require.True(t, ok)
	require.NotNil(t, sig.Payload)
	assert.Equal(t, "ops", sig.Payload.RequestedBy)
	assert.Equal(t, "pricing update", sig.Payload.Reason)

	// Garbage payload still triggers, just without metadata.
	require.NoError(t, os.WriteFile(filepath.Join(root, FullTriggerName), []byte("\t:::"), 0o644))
	sig, ok = g.Check()
	require.True(t, ok)
	assert.Equal(t, models.ReindexFull, sig.Mode)
	assert.Nil(t, sig.Payload)
}

func TestClear_ExternallyDeletedSentinelIsNoOp(t *testing.T) {
	g, _ := newTestGateway(t, 3, time.Now())
	g.Clear(models.ReindexFull)
	g.Clear(models.ReindexIncremental)
}
