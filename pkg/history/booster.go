// Package history implements the feedback-driven learning loop: an
// append-only ledger of routing corrections and a pure read path that turns
// recent feedback into a score boost. The ledger is the single source of
// learning state, so it can be replayed in tests and inspected offline.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
)

// Ref identifies a catalog entry by value.
type Ref struct {
	Kind catalog.Kind `json:"kind"`
	ID   string       `json:"id"`
}

// Record is one feedback event. Actual is nil when the caller accepted the
// prediction as-is; a non-nil Actual different from Predicted is a
// correction. Records are appended, never edited or deleted.
type Record struct {
	RecordID  string    `json:"record_id"`
	Prompt    string    `json:"prompt"`
	Predicted Ref       `json:"predicted"`
	Actual    *Ref      `json:"actual,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Config bounds the feedback window and its decay.
type Config struct {
	// MaxRecords caps how many recent records contribute to a boost.
	MaxRecords int
	// MaxAge caps how old a contributing record may be.
	MaxAge time.Duration
	// HalfLife controls exponential time decay of record weight.
	HalfLife time.Duration
}

// DefaultConfig returns the standard window bounds.
func DefaultConfig() Config {
	return Config{
		MaxRecords: 200,
		MaxAge:     30 * 24 * time.Hour,
		HalfLife:   72 * time.Hour,
	}
}

// Booster maintains the feedback ledger. Appends are durable at-least-once:
// the in-memory window is updated even when the file write fails, and write
// failures are logged rather than surfaced to the routing caller.
type Booster struct {
	path string
	cfg  Config
	log  *zap.Logger

	mu      sync.RWMutex
	records []Record

	now func() time.Time
}

// Open loads any existing ledger at path. A missing or unreadable file is
// not an error: the booster starts empty and fails open to zero boosts.
func Open(path string, cfg Config, log *zap.Logger) *Booster {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = DefaultConfig().MaxRecords
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultConfig().MaxAge
	}
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = DefaultConfig().HalfLife
	}

	b := &Booster{path: path, cfg: cfg, log: log, now: time.Now}
	b.load()
	return b
}

// load reads the ledger line by line, skipping lines that do not parse so a
// torn write never poisons the whole history.
func (b *Booster) load() {
	f, err := os.Open(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.log.Warn("feedback log unreadable, starting empty", zap.String("path", b.path), zap.Error(err))
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	skipped := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		b.records = append(b.records, rec)
	}
	if skipped > 0 {
		b.log.Warn("skipped malformed feedback records", zap.Int("count", skipped), zap.String("path", b.path))
	}
}

// RecordFeedback appends one record. Persistence failure is logged and
// swallowed; the in-flight decision that produced the record is unaffected.
func (b *Booster) RecordFeedback(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = b.now().UTC()
	}
	if rec.RecordID == "" {
		rec.RecordID = ulid.Make().String()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, rec)

	if err := b.appendLocked(rec); err != nil {
		b.log.Warn("feedback append failed", zap.String("path", b.path), zap.Error(err))
	}
}

func (b *Booster) appendLocked(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// QueryBoost returns the time-decayed acceptance rate for an entry over the
// bounded recent window: confirmations are records whose outcome named the
// entry, contradictions predicted it but were corrected elsewhere. Unseen
// entries and cancelled contexts return 0 — the read path fails open.
func (b *Booster) QueryBoost(ctx context.Context, kind catalog.Kind, id string) float64 {
	if ctx != nil && ctx.Err() != nil {
		return 0
	}

	b.mu.RLock()
	window := b.window()
	b.mu.RUnlock()

	now := b.now()
	var pos, neg float64
	for _, rec := range window {
		w := decayWeight(now.Sub(rec.Timestamp), b.cfg.HalfLife)
		outcome := rec.Actual
		if outcome == nil {
			outcome = &rec.Predicted
		}
		switch {
		case outcome.Kind == kind && outcome.ID == id:
			pos += w
		case rec.Predicted.Kind == kind && rec.Predicted.ID == id:
			neg += w
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return pos / (pos + neg)
}

// window applies both bounds: at most MaxRecords of the most recent
// records, none older than MaxAge. Caller holds at least a read lock.
func (b *Booster) window() []Record {
	cutoff := b.now().Add(-b.cfg.MaxAge)
	recs := b.records
	if len(recs) > b.cfg.MaxRecords {
		recs = recs[len(recs)-b.cfg.MaxRecords:]
	}
	i := sort.Search(len(recs), func(i int) bool {
		return !recs[i].Timestamp.Before(cutoff)
	})
	return recs[i:]
}

func decayWeight(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	return math.Pow(0.5, age.Seconds()/halfLife.Seconds())
}

// Len reports how many records are held in memory.
func (b *Booster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
