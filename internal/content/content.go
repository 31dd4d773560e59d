// Package content is the page context of one tab: it owns the parsed page,
// its cleaning session and the reading mode overlay, and answers messages
// routed to the tab.
//
// Every entry point, including timer callbacks from the session, runs under
// the context's mutex, so the page and session see one caller at a time.
package content

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/cleaner"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/messaging"
	"github.com/lotas/attention-cleaner/internal/page"
	"github.com/lotas/attention-cleaner/internal/readingmode"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/site"
	"github.com/lotas/attention-cleaner/internal/store"
)

// Config describes a page load.
type Config struct {
	TabID    int
	URL      string
	Document *page.Document
	Store    store.Store
	Rules    *rules.Table
	Recorder cleaner.Recorder
	Notifier cleaner.Notifier
	Clock    clock.Clock
	// OnRender, if set, receives the serialized page after every change
	// made by this context.
	OnRender func(tabID int, html string)
}

// Context is a loaded page context.
type Context struct {
	mu       sync.Mutex
	tabID    int
	origin   string
	doc      *page.Document
	store    store.Store
	session  *cleaner.Session
	onRender func(int, string)
}

// New binds a page context to a parsed document. A URL without a site
// origin gets the generic rules and the global preference record.
func New(cfg Config) *Context {
	origin, err := site.Origin(cfg.URL)
	if err != nil {
		applog.Info("content.no_origin", "tab", cfg.TabID, "url", cfg.URL)
	}
	c := &Context{
		tabID:    cfg.TabID,
		origin:   origin,
		doc:      cfg.Document,
		store:    cfg.Store,
		onRender: cfg.OnRender,
	}
	c.session = cleaner.New(cleaner.Config{
		Document: cfg.Document,
		Origin:   origin,
		Rules:    cfg.Rules,
		Recorder: cfg.Recorder,
		Notifier: cfg.Notifier,
		Clock:    cfg.Clock,
		Dispatch: c.dispatch,
	})
	return c
}

func (c *Context) TabID() int { return c.tabID }

func (c *Context) Origin() string { return c.origin }

// Active reports whether focus mode is on in this tab.
func (c *Context) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Active()
}

// Load restores the stored state for the page's origin: cleaning starts if
// the stored record has focus mode on, and reading mode is applied if the
// origin's flag is set.
func (c *Context) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := site.StorageKey(c.origin)
	p, found, err := store.LoadPreferences(ctx, c.store, key)
	if err != nil {
		return fmt.Errorf("load tab %d: %w", c.tabID, err)
	}
	if found {
		c.session.SetPreferences(p)
		if p.FocusMode {
			c.session.Activate(ctx, p, 0)
		}
	}

	reading, err := store.ReadingMode(ctx, c.store, key)
	if err != nil {
		return fmt.Errorf("load tab %d: %w", c.tabID, err)
	}
	if reading {
		readingmode.Set(c.doc, true)
	}

	applog.Info("content.load", "tab", c.tabID, "origin", c.origin, "focus", c.session.Active(), "reading", reading)
	c.render()
	return nil
}

// Handle answers a routed message.
func (c *Context) Handle(ctx context.Context, msg messaging.Message) messaging.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case messaging.ActionToggleFocus:
		if msg.Preferences != nil {
			c.session.SetPreferences(*msg.Preferences)
		}
		if msg.Enabled {
			c.session.Activate(ctx, c.session.Preferences(), msg.TempDuration)
		} else {
			c.session.Deactivate(ctx)
		}

	case messaging.ActionApplyClean:
		if msg.Preferences != nil {
			err := c.session.Reapply(ctx, *msg.Preferences)
			if errors.Is(err, cleaner.ErrInactive) {
				c.session.SetPreferences(*msg.Preferences)
			}
		}

	case messaging.ActionToggleReadingMode:
		readingmode.Set(c.doc, msg.Enabled)

	default:
		return messaging.Response{Error: fmt.Sprintf("unknown action %q", msg.Action)}
	}

	c.render()
	return messaging.Response{Success: true}
}

// Append inserts a fragment reported by the browser. An active session
// reacts to the insertion before Append returns.
func (c *Context) Append(parentSelector, fragment string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.doc.Append(parentSelector, fragment)
	if err != nil {
		return 0, err
	}
	c.render()
	return n, nil
}

// RemoveNodes detaches the elements matching selector.
func (c *Context) RemoveNodes(selector string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.doc.Remove(selector)
	if err != nil {
		return 0, err
	}
	c.render()
	return n, nil
}

// HTML renders the current page.
func (c *Context) HTML() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.HTML()
}

// Close ends the session; focus time of an active session is credited.
func (c *Context) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Close(ctx)
}

func (c *Context) dispatch(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f()
	c.render()
}

func (c *Context) render() {
	if c.onRender == nil {
		return
	}
	html, err := c.doc.HTML()
	if err != nil {
		applog.Error("content.render", err, "tab", c.tabID)
		return
	}
	c.onRender(c.tabID, html)
}
