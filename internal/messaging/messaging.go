// Package messaging routes requests from the popup and background to the
// page context loaded in a tab.
//
// Delivery is at-least-once at best: a tab whose page context has not
// loaded yet rejects the message with ErrReceiverNotReady. SendWithRetry
// forces a load and tries exactly once more without confirming delivery.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/prefs"
)

// Action names a page-context request.
type Action string

const (
	ActionToggleFocus       Action = "toggleFocus"
	ActionApplyClean        Action = "applyClean"
	ActionToggleReadingMode Action = "toggleReadingMode"
	ActionTempCleanExpired  Action = "tempCleanExpired"
)

// DefaultRetryDelay is the wait between forcing a load and resending.
const DefaultRetryDelay = 100 * time.Millisecond

// ErrReceiverNotReady means no page context is registered for the tab.
var ErrReceiverNotReady = errors.New("messaging: receiver not ready")

// Message is a request to a page context. Preferences is optional for
// toggleFocus; nil keeps the context's current preferences.
type Message struct {
	Action       Action             `json:"action"`
	Enabled      bool               `json:"enabled,omitempty"`
	Preferences  *prefs.Preferences `json:"preferences,omitempty"`
	TempDuration int                `json:"tempDuration,omitempty"`
}

// Response acknowledges a Message.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Handler receives messages for one tab.
type Handler interface {
	Handle(ctx context.Context, msg Message) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) Response

func (f HandlerFunc) Handle(ctx context.Context, msg Message) Response { return f(ctx, msg) }

// Loader forces the page context of a tab to load.
type Loader interface {
	Load(ctx context.Context, tabID int) error
}

// Router maps tab IDs to their page-context handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	loader   Loader

	// RetryDelay is the pause before the single resend.
	RetryDelay time.Duration
}

// NewRouter returns a Router that uses loader to recover unready tabs.
// loader may be nil, in which case SendWithRetry only waits and resends.
func NewRouter(loader Loader) *Router {
	return &Router{
		handlers:   make(map[int]Handler),
		loader:     loader,
		RetryDelay: DefaultRetryDelay,
	}
}

// Register installs h as the receiver for tabID, replacing any previous one.
func (r *Router) Register(tabID int, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tabID] = h
}

// Unregister removes the receiver for tabID.
func (r *Router) Unregister(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, tabID)
}

// Tabs returns how many tabs have a receiver.
func (r *Router) Tabs() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Send delivers msg to the tab's page context.
func (r *Router) Send(ctx context.Context, tabID int, msg Message) (Response, error) {
	r.mu.RLock()
	h, ok := r.handlers[tabID]
	r.mu.RUnlock()
	if !ok {
		return Response{}, fmt.Errorf("tab %d: %w", tabID, ErrReceiverNotReady)
	}
	return h.Handle(ctx, msg), nil
}

// SendWithRetry is Send, recovering once from ErrReceiverNotReady by
// loading the receiver, waiting RetryDelay and sending again. The outcome
// of the resend is returned but callers should treat it as unconfirmed.
func (r *Router) SendWithRetry(ctx context.Context, tabID int, msg Message) (Response, error) {
	resp, err := r.Send(ctx, tabID, msg)
	if !errors.Is(err, ErrReceiverNotReady) {
		return resp, err
	}

	applog.Info("messaging.retry", "tab", tabID, "action", string(msg.Action))
	if r.loader != nil {
		if err := r.loader.Load(ctx, tabID); err != nil {
			return Response{}, fmt.Errorf("load tab %d: %w", tabID, err)
		}
	}

	t := time.NewTimer(r.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-t.C:
	}
	return r.Send(ctx, tabID, msg)
}
