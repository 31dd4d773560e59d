package popup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotas/attention-cleaner/internal/background"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/content"
	"github.com/lotas/attention-cleaner/internal/messaging"
	"github.com/lotas/attention-cleaner/internal/page"
	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

type sender struct{ sent []messaging.Message }

func (s *sender) SendWithRetry(_ context.Context, _ int, msg messaging.Message) (messaging.Response, error) {
	s.sent = append(s.sent, msg)
	return messaging.Response{Success: true}, nil
}

type badges struct{ texts []string }

func (b *badges) SetBadge(_ context.Context, text, color string) error {
	b.texts = append(b.texts, text)
	return nil
}

var now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

type setup struct {
	c     *Controller
	store *store.Memory
	snd   *sender
	badge *badges
	clock *clock.Fake
}

func newSetup(url string) *setup {
	s := &setup{store: store.NewMemory(), snd: &sender{}, badge: &badges{}, clock: clock.NewFake(now)}
	s.c = New(Config{TabID: 1, URL: url, Store: s.store, Sender: s.snd, Badge: s.badge, Clock: s.clock})
	return s
}

func TestLoadDefaults(t *testing.T) {
	s := newSetup("https://medium.com/@a/post")
	st, err := s.c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Site: "Site: medium.com", Preferences: prefs.Defaults()}, st)
	assert.Equal(t, "medium.com", s.c.Key())
	assert.Equal(t, []string{""}, s.badge.texts)
}

func TestNoSiteUsesGlobalRecord(t *testing.T) {
	s := newSetup("about:addons")
	ctx := context.Background()
	assert.Equal(t, store.KeyGlobal, s.c.Key())

	require.NoError(t, s.c.SetCategory(ctx, rules.Comments, true))
	p, found, err := store.LoadGlobal(ctx, s.store)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, p.HideComments)

	st, err := s.c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NoSite, st.Site)
}

func TestSetFocus(t *testing.T) {
	s := newSetup("https://www.youtube.com/")
	ctx := context.Background()

	require.NoError(t, s.c.SetFocus(ctx, true))
	p, _, _ := store.LoadPreferences(ctx, s.store, "www.youtube.com")
	assert.True(t, p.FocusMode)
	assert.Equal(t, []string{background.BadgeOn}, s.badge.texts)

	require.Len(t, s.snd.sent, 1)
	msg := s.snd.sent[0]
	assert.Equal(t, messaging.ActionToggleFocus, msg.Action)
	assert.True(t, msg.Enabled)
	assert.False(t, msg.Preferences.FocusMode)
	assert.Zero(t, msg.TempDuration)
}

func TestSetCategorySendsOnlyWhileFocused(t *testing.T) {
	s := newSetup("https://www.youtube.com/")
	ctx := context.Background()

	require.NoError(t, s.c.SetCategory(ctx, rules.Ads, false))
	assert.Empty(t, s.snd.sent)

	require.NoError(t, s.c.SetFocus(ctx, true))
	require.NoError(t, s.c.SetCategory(ctx, rules.Comments, true))
	require.Len(t, s.snd.sent, 2)
	msg := s.snd.sent[1]
	assert.Equal(t, messaging.ActionApplyClean, msg.Action)
	assert.False(t, msg.Preferences.HideAds)
	assert.True(t, msg.Preferences.HideComments)

	p, _, _ := store.LoadPreferences(ctx, s.store, "www.youtube.com")
	assert.Equal(t, s.c.State().Preferences, p)
}

func TestToggleReadingMode(t *testing.T) {
	s := newSetup("https://medium.com/")
	ctx := context.Background()

	on, err := s.c.ToggleReadingMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	stored, _ := store.ReadingMode(ctx, s.store, "medium.com")
	assert.True(t, stored)

	on, err = s.c.ToggleReadingMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.Len(t, s.snd.sent, 2)
	assert.Equal(t, messaging.ActionToggleReadingMode, s.snd.sent[0].Action)
	assert.True(t, s.snd.sent[0].Enabled)
	assert.False(t, s.snd.sent[1].Enabled)
}

func TestSetTempClean(t *testing.T) {
	s := newSetup("https://www.reddit.com/")
	ctx := context.Background()

	require.NoError(t, s.c.SetTempClean(ctx, 30))
	end, ok, err := store.TempCleanEnd(ctx, s.store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, now.Add(30*time.Minute).Equal(end))
	assert.True(t, s.c.State().Preferences.FocusMode)

	require.Len(t, s.snd.sent, 1)
	assert.Equal(t, 30, s.snd.sent[0].TempDuration)
	assert.True(t, s.snd.sent[0].Enabled)

	s.clock.Advance(12 * time.Minute)
	st, err := s.c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, st.TempClean)

	require.NoError(t, s.c.SetTempClean(ctx, 0))
	_, ok, _ = store.TempCleanEnd(ctx, s.store)
	assert.False(t, ok)
	assert.True(t, s.c.State().Preferences.FocusMode)
	assert.Len(t, s.snd.sent, 1)

	assert.Error(t, s.c.SetTempClean(ctx, 45))
}

func TestFocusOffEndsTempClean(t *testing.T) {
	s := newSetup("https://www.reddit.com/")
	ctx := context.Background()

	require.NoError(t, s.c.SetTempClean(ctx, 15))
	require.NoError(t, s.c.SetFocus(ctx, false))
	assert.Zero(t, s.c.State().TempClean)

	_, ok, err := store.TempCleanEnd(ctx, s.store)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := s.c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, st.Preferences.FocusMode)
	assert.Zero(t, st.TempClean)

	// Turning focus on leaves the timer alone.
	require.NoError(t, s.c.SetTempClean(ctx, 30))
	require.NoError(t, s.c.SetFocus(ctx, true))
	assert.Equal(t, 30, s.c.State().TempClean)
}

func TestTempCleanChoice(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      int
	}{
		{-time.Minute, 0},
		{0, 0},
		{30 * time.Second, 15},
		{15 * time.Minute, 15},
		{15*time.Minute + time.Second, 30},
		{30 * time.Minute, 30},
		{31 * time.Minute, 60},
		{2 * time.Hour, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TempCleanChoice(tt.remaining), tt.remaining.String())
	}
}

func TestStatisticsAndReset(t *testing.T) {
	s := newSetup("https://x.com/")
	ctx := context.Background()
	tr := stats.NewTracker(s.store)
	require.NoError(t, tr.Increment(ctx, stats.KeyTimeInFocus, 45))
	require.NoError(t, tr.Increment(ctx, stats.KeySessionsCompleted, 2))

	got, sum, err := s.c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, got.TotalTimeInFocus)
	assert.Equal(t, 22, sum.AvgSessionMinutes)
	assert.Equal(t, "All day!", sum.ProductiveTime)

	require.NoError(t, s.c.ResetStatistics(ctx))
	got, sum, err = s.c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Statistics{}, got)
	assert.Equal(t, "N/A", sum.ProductiveTime)
}

// The popup reaches a tab whose page context is only created when the
// router asks for it.
func TestPopupLoadsUnreadyTab(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	fake := clock.NewFake(now)

	var router *messaging.Router
	var pc *content.Context
	router = messaging.NewRouter(loader(func(ctx context.Context, tabID int) error {
		doc, err := page.ParseString(`<html><head></head><body><aside>side</aside><p>text</p></body></html>`)
		if err != nil {
			return err
		}
		pc = content.New(content.Config{TabID: tabID, URL: "https://example.com/", Document: doc, Store: st, Clock: fake})
		router.Register(tabID, pc)
		return pc.Load(ctx)
	}))
	router.RetryDelay = time.Millisecond

	c := New(Config{TabID: 5, URL: "https://example.com/", Store: st, Sender: router, Clock: fake})
	require.NoError(t, c.SetFocus(ctx, true))

	require.NotNil(t, pc)
	assert.True(t, pc.Active())
	out, err := pc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `<aside data-cleaned="true" style="display: none;">`)
}

type loader func(ctx context.Context, tabID int) error

func (f loader) Load(ctx context.Context, tabID int) error { return f(ctx, tabID) }
