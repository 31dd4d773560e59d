// Package popup is the settings panel logic for the active tab: it reads
// and saves the site's preferences and forwards each change to the tab's
// page context.
package popup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/background"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/messaging"
	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/site"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

// NoSite is shown when the tab has no site origin.
const NoSite = "No site detected"

// TempCleanOptions are the selectable temporary-clean durations in
// minutes. Zero turns the timer off.
var TempCleanOptions = []int{0, 15, 30, 60}

// Sender delivers messages to a tab, loading its page context if needed.
type Sender interface {
	SendWithRetry(ctx context.Context, tabID int, msg messaging.Message) (messaging.Response, error)
}

// Badge updates the toolbar badge.
type Badge interface {
	SetBadge(ctx context.Context, text, color string) error
}

// Config binds a Controller to one tab.
type Config struct {
	TabID   int
	URL     string
	Store   store.Store
	Sender  Sender
	Badge   Badge
	Tracker *stats.Tracker
	Clock   clock.Clock
}

// State is what the panel shows.
type State struct {
	Site        string
	Preferences prefs.Preferences
	ReadingMode bool
	TempClean   int
}

// Controller handles the panel of one tab.
type Controller struct {
	tabID   int
	origin  string
	key     string
	store   store.Store
	sender  Sender
	badge   Badge
	tracker *stats.Tracker
	clock   clock.Clock

	state State
}

func New(cfg Config) *Controller {
	c := &Controller{
		tabID:   cfg.TabID,
		store:   cfg.Store,
		sender:  cfg.Sender,
		badge:   cfg.Badge,
		tracker: cfg.Tracker,
		clock:   cfg.Clock,
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.tracker == nil {
		c.tracker = stats.NewTracker(cfg.Store)
	}
	origin, err := site.Origin(cfg.URL)
	if err == nil {
		c.origin = origin
		c.state.Site = "Site: " + origin
	} else {
		c.state.Site = NoSite
	}
	c.key = site.StorageKey(c.origin)
	c.state.Preferences = prefs.Defaults()
	return c
}

// Key is the store key the panel reads and writes.
func (c *Controller) Key() string { return c.key }

// State returns the last loaded or changed state.
func (c *Controller) State() State { return c.state }

// Load reads the site's preferences, reading mode flag and any running
// temporary clean.
func (c *Controller) Load(ctx context.Context) (State, error) {
	p, _, err := store.LoadPreferences(ctx, c.store, c.key)
	if err != nil {
		return c.state, err
	}
	reading, err := store.ReadingMode(ctx, c.store, c.key)
	if err != nil {
		return c.state, err
	}
	temp := 0
	if end, ok, err := store.TempCleanEnd(ctx, c.store); err != nil {
		return c.state, err
	} else if ok {
		temp = TempCleanChoice(end.Sub(c.clock.Now()))
	}

	c.state.Preferences = p
	c.state.ReadingMode = reading
	c.state.TempClean = temp
	c.setBadge(ctx, p.FocusMode)
	return c.state, nil
}

// SetFocus turns focus mode on or off for the site. Turning it off also
// ends a running temporary clean.
func (c *Controller) SetFocus(ctx context.Context, on bool) error {
	c.state.Preferences.FocusMode = on
	c.setBadge(ctx, on)
	if err := store.SavePreferences(ctx, c.store, c.key, c.state.Preferences); err != nil {
		return err
	}
	if !on {
		if err := store.ClearTempCleanEnd(ctx, c.store); err != nil {
			return err
		}
		c.state.TempClean = 0
	}
	c.send(ctx, c.toggleFocus(on, 0))
	return nil
}

// SetCategory changes one hiding category. With focus mode on the tab
// recomputes its hiding right away.
func (c *Controller) SetCategory(ctx context.Context, cat rules.Category, on bool) error {
	c.state.Preferences = c.state.Preferences.With(cat, on)
	if err := store.SavePreferences(ctx, c.store, c.key, c.state.Preferences); err != nil {
		return err
	}
	if c.state.Preferences.FocusMode {
		p := c.state.Preferences.Categories()
		c.send(ctx, messaging.Message{Action: messaging.ActionApplyClean, Preferences: &p})
	}
	return nil
}

// ToggleReadingMode flips reading mode for the site and returns the new
// value.
func (c *Controller) ToggleReadingMode(ctx context.Context) (bool, error) {
	on := !c.state.ReadingMode
	if err := store.SetReadingMode(ctx, c.store, c.key, on); err != nil {
		return c.state.ReadingMode, err
	}
	c.state.ReadingMode = on
	c.send(ctx, messaging.Message{Action: messaging.ActionToggleReadingMode, Enabled: on})
	return on, nil
}

// SetTempClean starts a timed focus session of the given minutes, or
// clears the stored timer when minutes is zero. Clearing does not turn
// focus mode off.
func (c *Controller) SetTempClean(ctx context.Context, minutes int) error {
	if !validTempClean(minutes) {
		return fmt.Errorf("temporary clean of %d minutes: want one of %v", minutes, TempCleanOptions)
	}
	if minutes == 0 {
		if err := store.ClearTempCleanEnd(ctx, c.store); err != nil {
			return err
		}
		c.state.TempClean = 0
		return nil
	}

	end := c.clock.Now().Add(time.Duration(minutes) * time.Minute)
	if err := store.SetTempCleanEnd(ctx, c.store, end); err != nil {
		return err
	}
	c.state.TempClean = minutes
	c.state.Preferences.FocusMode = true
	c.setBadge(ctx, true)
	if err := store.SavePreferences(ctx, c.store, c.key, c.state.Preferences); err != nil {
		return err
	}
	c.send(ctx, c.toggleFocus(true, minutes))
	return nil
}

// Statistics returns the counters and their derived insights.
func (c *Controller) Statistics(ctx context.Context) (stats.Statistics, stats.Summary, error) {
	s, err := c.tracker.Read(ctx)
	if err != nil {
		return s, stats.Summary{}, err
	}
	return s, stats.Summarize(s), nil
}

// ResetStatistics zeroes every counter.
func (c *Controller) ResetStatistics(ctx context.Context) error {
	return c.tracker.Reset(ctx)
}

// TempCleanChoice maps the time left on a running timer to the option the
// panel shows: 15, 30 or 60. Nothing left maps to 0.
func TempCleanChoice(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	minutes := int(math.Ceil(remaining.Minutes()))
	switch {
	case minutes <= 15:
		return 15
	case minutes <= 30:
		return 30
	}
	return 60
}

func validTempClean(minutes int) bool {
	for _, m := range TempCleanOptions {
		if m == minutes {
			return true
		}
	}
	return false
}

func (c *Controller) toggleFocus(on bool, tempMinutes int) messaging.Message {
	p := c.state.Preferences.Categories()
	return messaging.Message{
		Action:       messaging.ActionToggleFocus,
		Enabled:      on,
		Preferences:  &p,
		TempDuration: tempMinutes,
	}
}

func (c *Controller) send(ctx context.Context, msg messaging.Message) {
	if c.sender == nil {
		return
	}
	if _, err := c.sender.SendWithRetry(ctx, c.tabID, msg); err != nil {
		applog.Error("popup.send", err, "tab", c.tabID, "action", string(msg.Action))
	}
}

func (c *Controller) setBadge(ctx context.Context, on bool) {
	if c.badge == nil {
		return
	}
	text := ""
	if on {
		text = background.BadgeOn
	}
	if err := c.badge.SetBadge(ctx, text, background.BadgeColor); err != nil {
		applog.Error("popup.badge", err)
	}
}
