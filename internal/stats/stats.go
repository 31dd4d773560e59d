// Package stats keeps the lifetime focus counters in the store.
//
// Increment is a read-modify-write of the whole aggregate. A Tracker
// serializes its own callers, but two trackers (two page contexts, or the
// popup and a page) can still interleave and lose an increment; the store
// is last-write-wins.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/store"
)

// Counter names, as stored.
const (
	KeyTimeInFocus         = "totalTimeInFocus"
	KeyDistractionsBlocked = "distractionsBlocked"
	KeySessionsCompleted   = "sessionsCompleted"
)

// Statistics is the persisted aggregate. TotalTimeInFocus is in minutes.
type Statistics struct {
	TotalTimeInFocus    int `json:"totalTimeInFocus"`
	DistractionsBlocked int `json:"distractionsBlocked"`
	SessionsCompleted   int `json:"sessionsCompleted"`
}

func (s *Statistics) field(key string) (*int, error) {
	switch key {
	case KeyTimeInFocus:
		return &s.TotalTimeInFocus, nil
	case KeyDistractionsBlocked:
		return &s.DistractionsBlocked, nil
	case KeySessionsCompleted:
		return &s.SessionsCompleted, nil
	}
	return nil, fmt.Errorf("unknown statistic %q", key)
}

// Tracker reads and updates the aggregate stored under store.KeyStatistics.
type Tracker struct {
	mu    sync.Mutex
	store store.Store
}

func NewTracker(s store.Store) *Tracker {
	return &Tracker{store: s}
}

// Increment adds amount to the named counter.
func (t *Tracker) Increment(ctx context.Context, key string, amount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.read(ctx)
	if err != nil {
		return err
	}
	f, err := s.field(key)
	if err != nil {
		return err
	}
	*f += amount
	if err := t.write(ctx, s); err != nil {
		return err
	}
	applog.Info("stats.increment", "key", key, "amount", amount, "value", *f)
	return nil
}

// Reset sets every counter to zero.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.write(ctx, Statistics{}); err != nil {
		return err
	}
	applog.Info("stats.reset")
	return nil
}

// Read returns the current aggregate. Missing counters read as zero.
func (t *Tracker) Read(ctx context.Context) (Statistics, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read(ctx)
}

func (t *Tracker) read(ctx context.Context) (Statistics, error) {
	var s Statistics
	res, err := t.store.Get(ctx, store.KeyStatistics)
	if err != nil {
		return s, fmt.Errorf("read statistics: %w", err)
	}
	if raw, ok := res[store.KeyStatistics]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return Statistics{}, fmt.Errorf("decode statistics: %w", err)
		}
	}
	return s, nil
}

func (t *Tracker) write(ctx context.Context, s Statistics) error {
	if err := t.store.Set(ctx, map[string]any{store.KeyStatistics: s}); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	return nil
}

// Summary holds the derived insights shown next to the counters.
type Summary struct {
	AvgSessionMinutes    int    `json:"avgSessionMinutes"`
	AvgBlockedPerSession int    `json:"avgBlockedPerSession"`
	ProductiveTime       string `json:"productiveTime"`
}

// Summarize derives per-session averages (floored, zero without sessions)
// and the productive-time label.
func Summarize(s Statistics) Summary {
	if s.SessionsCompleted <= 0 {
		return Summary{ProductiveTime: "N/A"}
	}
	return Summary{
		AvgSessionMinutes:    s.TotalTimeInFocus / s.SessionsCompleted,
		AvgBlockedPerSession: s.DistractionsBlocked / s.SessionsCompleted,
		ProductiveTime:       "All day!",
	}
}
