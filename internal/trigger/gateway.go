// Package trigger decides, each polling tick, whether reindex work is
// pending and of what kind. Signals arrive as sentinel files dropped under
// the orders root by the admin process or CLI, plus a daily schedule and a
// forced pass on process startup.
package trigger

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/store"
)

// Sentinel file names under the orders root. Presence signals pending work;
// the gateway deletes them when the run they triggered completes.
const (
	FullTriggerName        = "reindex.trigger"
	IncrementalTriggerName = "incremental.trigger"
)

// Trigger sources, for log lines and tests.
const (
	SourceManual    = "manual"
	SourceScheduled = "scheduled"
	SourceStartup   = "startup"
)

// Payload is the optional YAML body a CLI-written sentinel may carry.
// Parsed best-effort for the run-start log line; a missing or malformed
// payload never suppresses the trigger.
type Payload struct {
	RequestedBy string    `yaml:"requestedBy,omitempty"`
	RequestedAt time.Time `yaml:"requestedAt,omitempty"`
	Reason      string    `yaml:"reason,omitempty"`
}

// Signal describes one pending run.
type Signal struct {
	Mode    models.ReindexType
	Source  string
	Payload *Payload
}

// Gateway polls for pending work. The last-scheduled timestamp lives in
// memory only, so a restart shortly before the target hour may cause an
// extra scheduled run; processing is idempotent so this is acceptable.
type Gateway struct {
	root          string
	scheduledHour int
	now           func() time.Time

	lastScheduled  time.Time
	startupPending bool
}

// NewGateway creates a gateway over the orders root. scheduledHour is the
// local hour (0-23) at which the daily incremental pass fires.
func NewGateway(root string, scheduledHour int) *Gateway {
	return &Gateway{
		root:           root,
		scheduledHour:  scheduledHour,
		now:            time.Now,
		startupPending: true,
	}
}

// Check reports the pending run for this tick, if any. Priority when several
// signals coincide: manual full, then manual incremental, then the startup
// pass, then the daily schedule. Exactly one signal is returned per tick.
// Check never fails; unreadable directory state is logged and reported as
// no trigger.
func (g *Gateway) Check() (Signal, bool) {
	if g.sentinelPresent(FullTriggerName) {
		return Signal{
			Mode:    models.ReindexFull,
			Source:  SourceManual,
			Payload: g.readPayload(FullTriggerName),
		}, true
	}

	if g.sentinelPresent(IncrementalTriggerName) {
		return Signal{
			Mode:    models.ReindexIncremental,
			Source:  SourceManual,
			Payload: g.readPayload(IncrementalTriggerName),
		}, true
	}

	now := g.now()

	if g.startupPending {
		g.startupPending = false
		g.lastScheduled = now
		return Signal{Mode: models.ReindexIncremental, Source: SourceStartup}, true
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), g.scheduledHour, 0, 0, 0, now.Location())
	if !now.Before(target) && g.lastScheduled.Before(target) {
		g.lastScheduled = now
		return Signal{Mode: models.ReindexIncremental, Source: SourceScheduled}, true
	}

	return Signal{}, false
}

// Clear deletes the sentinel for the completed run mode. A sentinel deleted
// externally in the meantime is a no-op; scheduled and startup runs have no
// sentinel, so Clear is naturally a no-op for them too.
func (g *Gateway) Clear(mode models.ReindexType) {
	path := g.sentinelPath(mode)
	if err := store.Remove(path); err != nil {
		slog.Warn("failed to clear trigger file", "path", path, "error", err)
	}
}

// Write drops a sentinel for the given mode, optionally carrying a payload.
// Used by the CLI; the gateway only ever reads and deletes sentinels.
func Write(root string, mode models.ReindexType, payload *Payload) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = yaml.Marshal(payload); err != nil {
			return err
		}
	}
	name := IncrementalTriggerName
	if mode == models.ReindexFull {
		name = FullTriggerName
	}
	return os.WriteFile(filepath.Join(root, name), body, 0o644)
}

func (g *Gateway) sentinelPath(mode models.ReindexType) string {
	if mode == models.ReindexFull {
		return filepath.Join(g.root, FullTriggerName)
	}
	return filepath.Join(g.root, IncrementalTriggerName)
}

func (g *Gateway) sentinelPresent(name string) bool {
	_, err := os.Stat(filepath.Join(g.root, name))
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to stat trigger file", "file", name, "error", err)
	}
	return false
}

func (g *Gateway) readPayload(name string) *Payload {
	data, err := os.ReadFile(filepath.Join(g.root, name))
	if err != nil || len(data) == 0 {
		return nil
	}
	var p Payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		slog.Debug("ignoring malformed trigger payload", "file", name, "error", err)
		return nil
	}
	return &p
}
