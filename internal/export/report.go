// Package export renders the stored settings and statistics as a report.
package export

import (
	"context"
	"sort"
	"time"

	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

// Site is one stored preference record. Global is the record used when no
// site is detected.
type Site struct {
	Key         string            `json:"key"`
	Preferences prefs.Preferences `json:"preferences"`
	ReadingMode bool              `json:"reading_mode"`
	Global      bool              `json:"global,omitempty"`
	Stored      bool              `json:"stored"`
}

// Report is a snapshot of the store.
type Report struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	TempCleanEnd *time.Time       `json:"temp_clean_end,omitempty"`
	Statistics   stats.Statistics `json:"statistics"`
	Summary      stats.Summary    `json:"summary"`
	Sites        []Site           `json:"sites"`
}

var reservedKeys = map[string]bool{
	store.KeyReadingMode:  true,
	store.KeyTempCleanEnd: true,
	store.KeyStatistics:   true,
}

// Build reads every preference record, reading mode flag and counter from
// s. Sites with only a reading mode flag are listed with default
// preferences. The global record sorts first, the rest by key.
func Build(ctx context.Context, s store.Store, now time.Time) (*Report, error) {
	r := &Report{GeneratedAt: now}

	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	modes, err := store.ReadingModes(ctx, s)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		if reservedKeys[key] {
			continue
		}
		p, found, err := store.LoadPreferences(ctx, s, key)
		if err != nil {
			return nil, err
		}
		seen[key] = true
		r.Sites = append(r.Sites, Site{
			Key:         key,
			Preferences: p,
			ReadingMode: modes[key],
			Global:      key == prefs.GlobalKey,
			Stored:      found,
		})
	}
	for key, on := range modes {
		if seen[key] {
			continue
		}
		r.Sites = append(r.Sites, Site{
			Key:         key,
			Preferences: prefs.Defaults(),
			ReadingMode: on,
			Global:      key == prefs.GlobalKey,
		})
	}
	sort.Slice(r.Sites, func(i, j int) bool {
		if r.Sites[i].Global != r.Sites[j].Global {
			return r.Sites[i].Global
		}
		return r.Sites[i].Key < r.Sites[j].Key
	})

	if end, ok, err := store.TempCleanEnd(ctx, s); err != nil {
		return nil, err
	} else if ok {
		r.TempCleanEnd = &end
	}

	r.Statistics, err = stats.NewTracker(s).Read(ctx)
	if err != nil {
		return nil, err
	}
	r.Summary = stats.Summarize(r.Statistics)
	return r, nil
}
