package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

var now = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func seed(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()

	focused := prefs.Defaults()
	focused.FocusMode = true
	require.NoError(t, store.SavePreferences(ctx, s, "www.youtube.com", focused))
	require.NoError(t, store.SavePreferences(ctx, s, prefs.GlobalKey, prefs.Defaults()))
	require.NoError(t, store.SavePreferences(ctx, s, "news.ycombinator.com", prefs.Defaults().With(rules.Comments, true)))
	require.NoError(t, store.SetReadingMode(ctx, s, "news.ycombinator.com", true))
	require.NoError(t, store.SetReadingMode(ctx, s, "medium.com", true))
	require.NoError(t, store.SetTempCleanEnd(ctx, s, now.Add(25*time.Minute)))

	tr := stats.NewTracker(s)
	require.NoError(t, tr.Increment(ctx, stats.KeyTimeInFocus, 40))
	require.NoError(t, tr.Increment(ctx, stats.KeyDistractionsBlocked, 9))
	require.NoError(t, tr.Increment(ctx, stats.KeySessionsCompleted, 2))
	return s
}

func TestBuild(t *testing.T) {
	r, err := Build(context.Background(), seed(t), now)
	require.NoError(t, err)

	var keys []string
	for _, s := range r.Sites {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{prefs.GlobalKey, "medium.com", "news.ycombinator.com", "www.youtube.com"}, keys)

	assert.True(t, r.Sites[0].Global)
	assert.False(t, r.Sites[1].Stored, "reading mode only")
	assert.Equal(t, prefs.Defaults(), r.Sites[1].Preferences)
	assert.True(t, r.Sites[2].ReadingMode)
	assert.True(t, r.Sites[2].Preferences.HideComments)
	assert.True(t, r.Sites[3].Preferences.FocusMode)

	require.NotNil(t, r.TempCleanEnd)
	assert.True(t, r.TempCleanEnd.Equal(now.Add(25*time.Minute)))
	assert.Equal(t, 20, r.Summary.AvgSessionMinutes)
	assert.Equal(t, 4, r.Summary.AvgBlockedPerSession)
}

func TestBuildEmpty(t *testing.T) {
	r, err := Build(context.Background(), store.NewMemory(), now)
	require.NoError(t, err)
	assert.Empty(t, r.Sites)
	assert.Nil(t, r.TempCleanEnd)
	assert.Equal(t, "N/A", r.Summary.ProductiveTime)

	md := Markdown(r)
	assert.Contains(t, md, "## Sites (0 sites)")
	assert.Contains(t, md, "No saved preferences.")
}

func TestMarkdown(t *testing.T) {
	r, err := Build(context.Background(), seed(t), now)
	require.NoError(t, err)
	md := Markdown(r)

	assert.Contains(t, md, "> Generated 2026-03-01 09:30")
	assert.Contains(t, md, "> Temporary clean ends in 25m")
	assert.Contains(t, md, "- Time in focus: 40 min")
	assert.Contains(t, md, "## Sites (4 sites)")
	assert.Contains(t, md, "| _global_ |  | x | x | x |  | x |  |")
	assert.Contains(t, md, "| www.youtube.com | x | x | x | x |  | x |  |")
	assert.Contains(t, md, "| news.ycombinator.com |  | x | x | x | x | x | x |")
	assert.Equal(t, 1, strings.Count(md, "\n|---"))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, "expired", remaining(-time.Second))
	assert.Equal(t, "ends in under a minute", remaining(30*time.Second))
	assert.Equal(t, "ends in 59m", remaining(59*time.Minute+59*time.Second))
	assert.Equal(t, "ends in 1h05m", remaining(65*time.Minute))
}

func TestJSON(t *testing.T) {
	r, err := Build(context.Background(), seed(t), now)
	require.NoError(t, err)
	out, err := JSON(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "temp_clean_end")
	sites := decoded["sites"].([]any)
	assert.Len(t, sites, 4)
	first := sites[0].(map[string]any)
	assert.Equal(t, "global", first["key"])
	assert.Equal(t, true, first["global"])
	statsOut := decoded["statistics"].(map[string]any)
	assert.EqualValues(t, 40, statsOut["totalTimeInFocus"])
}
