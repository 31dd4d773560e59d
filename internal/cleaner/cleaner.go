// Package cleaner hides distracting regions of a page and keeps them hidden
// while the page mutates.
//
// A Session has two states, Inactive (initial) and Active. Hidden elements
// carry the MarkerAttr attribute and an inline display override; the marker
// on the live element is the only record of what is hidden, so elements the
// page moves or re-inserts are still recognized.
//
// Focus time is credited by the minute ticker as it runs; Deactivate adds
// only the whole minutes the ticker has not credited yet.
//
// A Session is not safe for concurrent use. Timer callbacks are handed to
// Config.Dispatch so the owner can run them under the same lock it uses for
// every other call.
package cleaner

import (
	"context"
	"errors"
	"time"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/page"
	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/stats"
)

// MarkerAttr marks an element hidden by the engine.
const MarkerAttr = "data-cleaned"

const markerSelector = "[" + MarkerAttr + "]"

// TickInterval is how often an active session credits focus time.
const TickInterval = time.Minute

// ErrInactive is returned by Reapply when the session is not active.
var ErrInactive = errors.New("cleaner: session is not active")

// Recorder receives statistics increments.
type Recorder interface {
	Increment(ctx context.Context, key string, amount int) error
}

// Notifier is told when a temporary clean runs out.
type Notifier interface {
	TempCleanExpired(ctx context.Context)
}

// Config wires a Session to its page and collaborators. Document and Rules
// are required; the rest default to no-ops, the real clock and direct
// dispatch.
type Config struct {
	Document *page.Document
	Origin   string
	Rules    *rules.Table
	Recorder Recorder
	Notifier Notifier
	Clock    clock.Clock
	// Dispatch runs timer callbacks. It must serialize them with every
	// other call into the Session.
	Dispatch func(func())
}

// Session is the cleaning state of one page load.
type Session struct {
	doc      *page.Document
	origin   string
	rules    *rules.Table
	recorder Recorder
	notifier Notifier
	clock    clock.Clock
	dispatch func(func())

	prefs    prefs.Preferences
	active   bool
	start    time.Time
	credited int // minutes already added by the ticker

	// gen changes on every activation and deactivation so callbacks from
	// stopped timers that were already queued do nothing.
	gen     int
	tempGen int
	ticker  clock.Timer
	temp    clock.Timer

	stopObserving func()
}

// New creates an inactive session and starts watching the document for
// inserted and removed content.
func New(cfg Config) *Session {
	s := &Session{
		doc:      cfg.Document,
		origin:   cfg.Origin,
		rules:    cfg.Rules,
		recorder: cfg.Recorder,
		notifier: cfg.Notifier,
		clock:    cfg.Clock,
		dispatch: cfg.Dispatch,
		prefs:    prefs.Defaults(),
	}
	if s.rules == nil {
		s.rules = rules.Default()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.dispatch == nil {
		s.dispatch = func(f func()) { f() }
	}
	s.stopObserving = s.doc.Observe(s.onMutation)
	return s
}

func (s *Session) Active() bool { return s.active }

func (s *Session) Preferences() prefs.Preferences { return s.prefs }

func (s *Session) Origin() string { return s.origin }

// SetPreferences replaces the preferences without touching the page.
func (s *Session) SetPreferences(p prefs.Preferences) { s.prefs = p }

// Activate enters (or re-enters) the active state with p and applies it.
// Re-entering keeps the running session and its ticker. When tempMinutes
// is positive the temporary-clean timer is re-armed.
func (s *Session) Activate(ctx context.Context, p prefs.Preferences, tempMinutes int) {
	s.prefs = p
	if !s.active {
		s.active = true
		s.start = s.clock.Now()
		s.credited = 0
		s.gen++
		s.armTicker()
		applog.Info("cleaner.activate", "origin", s.origin, "temp_minutes", tempMinutes)
	}

	s.Apply(ctx)

	if tempMinutes > 0 {
		s.armTemp(time.Duration(tempMinutes) * time.Minute)
	}
}

// Deactivate removes all hiding, stops both timers and credits the
// session's remaining whole minutes. A session shorter than a minute
// counts for nothing.
func (s *Session) Deactivate(ctx context.Context) {
	s.Remove()
	s.cancelTemp()
	if !s.active {
		return
	}

	s.active = false
	s.gen++
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}

	elapsed := int(s.clock.Now().Sub(s.start) / time.Minute)
	if rest := elapsed - s.credited; rest > 0 {
		s.record(ctx, stats.KeyTimeInFocus, rest)
	}
	if elapsed >= 1 {
		s.record(ctx, stats.KeySessionsCompleted, 1)
	}
	applog.Info("cleaner.deactivate", "origin", s.origin, "minutes", elapsed)
}

// Reapply replaces the preferences and recomputes hiding from scratch.
func (s *Session) Reapply(ctx context.Context, p prefs.Preferences) error {
	if !s.active {
		return ErrInactive
	}
	s.prefs = p
	s.Remove()
	s.Apply(ctx)
	return nil
}

// Apply hides every element matched by the current plan and returns how
// many were not hidden before. Selectors that fail to query are skipped.
func (s *Session) Apply(ctx context.Context) int {
	plan := s.rules.Plan(s.origin, s.prefs.Enabled)

	hidden := 0
	for _, sel := range plan {
		els, err := s.doc.Query(sel)
		if err != nil {
			applog.Warn("cleaner.selector", "origin", s.origin, "selector", sel, "err", err)
			continue
		}
		for _, el := range els {
			if !el.HasAttr(MarkerAttr) {
				hidden++
			}
			el.SetAttr(MarkerAttr, "true")
			el.SetDisplay("none")
		}
	}

	if hidden > 0 {
		s.record(ctx, stats.KeyDistractionsBlocked, hidden)
		applog.Info("cleaner.apply", "origin", s.origin, "hidden", hidden)
	}
	return hidden
}

// Remove unhides every marked element, whichever selector matched it.
func (s *Session) Remove() int {
	els, err := s.doc.Query(markerSelector)
	if err != nil {
		applog.Error("cleaner.remove", err)
		return 0
	}
	for _, el := range els {
		el.RemoveAttr(MarkerAttr)
		el.ClearDisplay()
	}
	return len(els)
}

// Close deactivates the session and stops watching the document.
func (s *Session) Close(ctx context.Context) {
	s.Deactivate(ctx)
	if s.stopObserving != nil {
		s.stopObserving()
		s.stopObserving = nil
	}
}

func (s *Session) onMutation(batch []page.Mutation) {
	if !s.active {
		return
	}
	s.Apply(context.Background())
}

func (s *Session) armTicker() {
	gen := s.gen
	s.ticker = s.clock.AfterFunc(TickInterval, func() {
		s.dispatch(func() { s.tick(gen) })
	})
}

func (s *Session) tick(gen int) {
	if !s.active || s.gen != gen {
		return
	}
	s.credited++
	s.record(context.Background(), stats.KeyTimeInFocus, 1)
	s.armTicker()
}

func (s *Session) armTemp(d time.Duration) {
	s.cancelTemp()
	gen := s.tempGen
	s.temp = s.clock.AfterFunc(d, func() {
		s.dispatch(func() { s.expire(gen) })
	})
	applog.Info("cleaner.temp_armed", "origin", s.origin, "duration", d)
}

func (s *Session) cancelTemp() {
	s.tempGen++
	if s.temp != nil {
		s.temp.Stop()
		s.temp = nil
	}
}

func (s *Session) expire(gen int) {
	if s.tempGen != gen {
		return
	}
	s.temp = nil
	ctx := context.Background()
	applog.Info("cleaner.temp_expired", "origin", s.origin)
	s.Deactivate(ctx)
	s.notifier.TempCleanExpired(ctx)
}

func (s *Session) record(ctx context.Context, key string, amount int) {
	if err := s.recorder.Increment(ctx, key, amount); err != nil {
		applog.Error("cleaner.record", err, "key", key, "amount", amount)
	}
}

type nopRecorder struct{}

func (nopRecorder) Increment(context.Context, string, int) error { return nil }

type nopNotifier struct{}

func (nopNotifier) TempCleanExpired(context.Context) {}
