package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/background"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/content"
	"github.com/lotas/attention-cleaner/internal/messaging"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

// HostConfig wires a Host.
type HostConfig struct {
	Server *Server
	Store  store.Store
	Rules  *rules.Table
	Clock  clock.Clock
}

// Host turns bridge messages into page contexts, routed messages and
// background handling. All page contexts share one statistics tracker, so
// increments from different tabs are serialized in this process.
type Host struct {
	srv        *Server
	store      store.Store
	rules      *rules.Table
	clock      clock.Clock
	tracker    *stats.Tracker
	router     *messaging.Router
	background *background.Background

	mu        sync.Mutex
	contexts  map[int]*content.Context
	activeTab int
	urls      map[int]string
}

func NewHost(cfg HostConfig) *Host {
	if cfg.Rules == nil {
		cfg.Rules = rules.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	h := &Host{
		srv:      cfg.Server,
		store:    cfg.Store,
		rules:    cfg.Rules,
		clock:    cfg.Clock,
		tracker:  stats.NewTracker(cfg.Store),
		router:   messaging.NewRouter(cfg.Server),
		contexts: make(map[int]*content.Context),
		urls:     make(map[int]string),
	}
	h.background = background.New(cfg.Store, cfg.Server, h.router, cfg.Clock)
	return h
}

func (h *Host) Router() *messaging.Router { return h.router }

func (h *Host) Background() *background.Background { return h.background }

func (h *Host) Tracker() *stats.Tracker { return h.tracker }

// ActiveTab returns the tab the extension last reported as focused.
func (h *Host) ActiveTab() (int, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeTab, h.urls[h.activeTab]
}

// Context returns the page context of a tab, if loaded.
func (h *Host) Context(tabID int) (*content.Context, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.contexts[tabID]
	return c, ok
}

// Run installs defaults, starts the temporary-clean check and handles
// bridge messages until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	if err := h.background.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	go h.background.Run(ctx, background.CheckInterval)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case msg := <-h.srv.Messages():
			if err := h.HandleMessage(ctx, msg); err != nil {
				applog.Error("host.message", err, "type", msg.Type, "tab", msg.TabID)
			}
		}
	}
}

// HandleMessage processes one message from the extension.
func (h *Host) HandleMessage(ctx context.Context, msg IncomingMsg) error {
	switch msg.Type {
	case TypePage:
		load, err := ParsePage(msg)
		if err != nil {
			return err
		}
		return h.loadPage(ctx, load)

	case TypeMutation:
		ev, err := ParseMutation(msg)
		if err != nil {
			return err
		}
		c, ok := h.Context(ev.TabID)
		if !ok {
			return fmt.Errorf("mutation for tab %d: %w", ev.TabID, messaging.ErrReceiverNotReady)
		}
		if ev.Remove != "" {
			_, err = c.RemoveNodes(ev.Remove)
		} else {
			_, err = c.Append(ev.Parent, ev.Fragment)
		}
		return err

	case TypeActive:
		h.mu.Lock()
		h.activeTab = msg.TabID
		if msg.URL != "" {
			h.urls[msg.TabID] = msg.URL
		}
		h.mu.Unlock()
		return nil

	case TypeClosed:
		h.closeTab(ctx, msg.TabID)
		return nil

	case TypeCommand:
		url := msg.URL
		if url == "" {
			h.mu.Lock()
			url = h.urls[msg.TabID]
			h.mu.Unlock()
		}
		return h.background.HandleCommand(ctx, msg.Command, msg.TabID, url)

	case TypeTempCleanExpired:
		return h.background.HandleTempCleanExpired(ctx)

	case "":
		// response to one of our requests
		if msg.OK != nil && !*msg.OK {
			applog.Warn("host.request_failed", "id", msg.ID, "error", msg.Error)
		}
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

// loadPage replaces the tab's page context with a fresh one for the new
// document.
func (h *Host) loadPage(ctx context.Context, load *PageLoad) error {
	h.closeTab(ctx, load.TabID)

	c := content.New(content.Config{
		TabID:    load.TabID,
		URL:      load.URL,
		Document: load.Document,
		Store:    h.store,
		Rules:    h.rules,
		Recorder: h.tracker,
		Notifier: h.background,
		Clock:    h.clock,
		OnRender: h.srv.Cleaned,
	})

	h.mu.Lock()
	h.contexts[load.TabID] = c
	h.urls[load.TabID] = load.URL
	h.mu.Unlock()
	h.router.Register(load.TabID, c)

	return c.Load(ctx)
}

func (h *Host) closeTab(ctx context.Context, tabID int) {
	h.mu.Lock()
	c, ok := h.contexts[tabID]
	delete(h.contexts, tabID)
	delete(h.urls, tabID)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.router.Unregister(tabID)
	c.Close(ctx)
}

func (h *Host) closeAll() {
	h.mu.Lock()
	ids := make([]int, 0, len(h.contexts))
	for id := range h.contexts {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.closeTab(context.Background(), id)
	}
}
