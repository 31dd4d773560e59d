package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lotas/attention-cleaner/internal/prefs"
)

// Well-known keys. Per-site preference records are stored under the bare
// origin.
const (
	KeyGlobal       = prefs.GlobalKey
	KeyReadingMode  = "readingMode"
	KeyTempCleanEnd = "tempCleanEnd"
	KeyStatistics   = "statistics"
)

// LoadPreferences reads the preference record stored under key and
// resolves it against the defaults. found is false when nothing is stored.
func LoadPreferences(ctx context.Context, s Store, key string) (p prefs.Preferences, found bool, err error) {
	res, err := s.Get(ctx, key)
	if err != nil {
		return prefs.Defaults(), false, fmt.Errorf("load preferences %q: %w", key, err)
	}
	raw, ok := res[key]
	if !ok {
		return prefs.Defaults(), false, nil
	}
	var stored prefs.Stored
	if err := json.Unmarshal(raw, &stored); err != nil {
		return prefs.Defaults(), false, fmt.Errorf("decode preferences %q: %w", key, err)
	}
	return prefs.Resolve(&stored), true, nil
}

// LoadGlobal reads the global preference record.
func LoadGlobal(ctx context.Context, s Store) (prefs.Preferences, bool, error) {
	return LoadPreferences(ctx, s, KeyGlobal)
}

// SavePreferences writes the full record under key.
func SavePreferences(ctx context.Context, s Store, key string, p prefs.Preferences) error {
	if err := s.Set(ctx, map[string]any{key: p}); err != nil {
		return fmt.Errorf("save preferences %q: %w", key, err)
	}
	return nil
}

// ReadingModes returns the per-origin reading mode map.
func ReadingModes(ctx context.Context, s Store) (map[string]bool, error) {
	res, err := s.Get(ctx, KeyReadingMode)
	if err != nil {
		return nil, fmt.Errorf("load reading mode: %w", err)
	}
	modes := make(map[string]bool)
	if raw, ok := res[KeyReadingMode]; ok {
		if err := json.Unmarshal(raw, &modes); err != nil {
			return nil, fmt.Errorf("decode reading mode: %w", err)
		}
	}
	return modes, nil
}

// ReadingMode reports whether reading mode is on for origin.
func ReadingMode(ctx context.Context, s Store, origin string) (bool, error) {
	modes, err := ReadingModes(ctx, s)
	if err != nil {
		return false, err
	}
	return modes[origin], nil
}

// SetReadingMode updates one origin in the reading mode map. This is a
// read-modify-write of the whole map.
func SetReadingMode(ctx context.Context, s Store, origin string, enabled bool) error {
	modes, err := ReadingModes(ctx, s)
	if err != nil {
		return err
	}
	modes[origin] = enabled
	if err := s.Set(ctx, map[string]any{KeyReadingMode: modes}); err != nil {
		return fmt.Errorf("save reading mode: %w", err)
	}
	return nil
}

// TempCleanEnd returns the stored temporary-clean expiry, if any.
func TempCleanEnd(ctx context.Context, s Store) (time.Time, bool, error) {
	res, err := s.Get(ctx, KeyTempCleanEnd)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load temp clean end: %w", err)
	}
	raw, ok := res[KeyTempCleanEnd]
	if !ok {
		return time.Time{}, false, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, false, fmt.Errorf("decode temp clean end: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

// SetTempCleanEnd stores the expiry as epoch milliseconds.
func SetTempCleanEnd(ctx context.Context, s Store, end time.Time) error {
	if err := s.Set(ctx, map[string]any{KeyTempCleanEnd: end.UnixMilli()}); err != nil {
		return fmt.Errorf("save temp clean end: %w", err)
	}
	return nil
}

// ClearTempCleanEnd removes the stored expiry.
func ClearTempCleanEnd(ctx context.Context, s Store) error {
	if err := s.Remove(ctx, KeyTempCleanEnd); err != nil {
		return fmt.Errorf("clear temp clean end: %w", err)
	}
	return nil
}
