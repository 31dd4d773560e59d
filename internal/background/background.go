// Package background holds the extension-wide handlers that do not belong
// to any page: install defaults, the keyboard command, the temporary-clean
// expiry notification and the once-a-minute expiry check.
package background

import (
	"context"
	"fmt"
	"time"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/messaging"
	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/site"
	"github.com/lotas/attention-cleaner/internal/store"
)

const (
	BadgeOn    = "ON"
	BadgeColor = "#4caf50"

	ExpiredTitle   = "Focus Mode Expired"
	ExpiredMessage = "Your temporary clean session has ended."

	// CommandToggleFocus is the keyboard command name.
	CommandToggleFocus = "toggle-focus"

	CheckInterval = time.Minute
)

// Outbound carries requests to the browser chrome around the page.
type Outbound interface {
	SetBadge(ctx context.Context, text, color string) error
	Notify(ctx context.Context, title, message string) error
}

// Sender delivers a message to a tab's page context.
type Sender interface {
	Send(ctx context.Context, tabID int, msg messaging.Message) (messaging.Response, error)
}

type Background struct {
	store  store.Store
	out    Outbound
	sender Sender
	clock  clock.Clock
}

func New(s store.Store, out Outbound, sender Sender, clk clock.Clock) *Background {
	if clk == nil {
		clk = clock.Real()
	}
	return &Background{store: s, out: out, sender: sender, clock: clk}
}

// Install writes the global defaults unless a global record exists, and
// clears the badge.
func (b *Background) Install(ctx context.Context) error {
	b.badge(ctx, false)

	_, found, err := store.LoadGlobal(ctx, b.store)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	if err := store.SavePreferences(ctx, b.store, store.KeyGlobal, prefs.Defaults()); err != nil {
		return err
	}
	applog.Info("background.install")
	return nil
}

// ToggleFocusCommand flips focus mode for the site open in tabID, saves it,
// updates the badge and tells the tab. It returns the new state. Pages
// without a site origin are left alone.
func (b *Background) ToggleFocusCommand(ctx context.Context, tabID int, url string) (bool, error) {
	origin, err := site.Origin(url)
	if err != nil {
		return false, err
	}

	p, _, err := store.LoadPreferences(ctx, b.store, origin)
	if err != nil {
		return false, err
	}
	p.FocusMode = !p.FocusMode
	if err := store.SavePreferences(ctx, b.store, origin, p); err != nil {
		return false, err
	}
	b.badge(ctx, p.FocusMode)

	cats := p.Categories()
	_, err = b.sender.Send(ctx, tabID, messaging.Message{
		Action:      messaging.ActionToggleFocus,
		Enabled:     p.FocusMode,
		Preferences: &cats,
	})
	if err != nil {
		applog.Error("background.toggle_send", err, "tab", tabID)
	}
	applog.Info("background.toggle_focus", "origin", origin, "focus", p.FocusMode)
	return p.FocusMode, nil
}

// HandleCommand dispatches a keyboard command.
func (b *Background) HandleCommand(ctx context.Context, command string, tabID int, url string) error {
	if command != CommandToggleFocus {
		return fmt.Errorf("unknown command %q", command)
	}
	_, err := b.ToggleFocusCommand(ctx, tabID, url)
	return err
}

// HandleTempCleanExpired shows the expiry notification and clears the
// badge.
func (b *Background) HandleTempCleanExpired(ctx context.Context) error {
	if err := b.out.Notify(ctx, ExpiredTitle, ExpiredMessage); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	b.badge(ctx, false)
	return nil
}

// TempCleanExpired lets a Background serve as a page session's notifier.
func (b *Background) TempCleanExpired(ctx context.Context) {
	if err := b.HandleTempCleanExpired(ctx); err != nil {
		applog.Error("background.temp_expired", err)
	}
}

// CheckTempClean clears a stored temporary-clean expiry that has passed.
// It reports whether one was cleared.
func (b *Background) CheckTempClean(ctx context.Context) (bool, error) {
	end, ok, err := store.TempCleanEnd(ctx, b.store)
	if err != nil || !ok {
		return false, err
	}
	if end.After(b.clock.Now()) {
		return false, nil
	}
	if err := store.ClearTempCleanEnd(ctx, b.store); err != nil {
		return false, err
	}
	b.badge(ctx, false)
	applog.Info("background.temp_cleared", "end", end)
	return true, nil
}

// Run calls CheckTempClean every interval until ctx is done.
func (b *Background) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := b.CheckTempClean(ctx); err != nil {
				applog.Error("background.check_temp", err)
			}
		}
	}
}

func (b *Background) badge(ctx context.Context, on bool) {
	text := ""
	if on {
		text = BadgeOn
	}
	if err := b.out.SetBadge(ctx, text, BadgeColor); err != nil {
		applog.Error("background.badge", err, "text", text)
	}
}
