package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotas/attention-cleaner/internal/prefs"
)

type loaderFunc func(ctx context.Context, tabID int) error

func (f loaderFunc) Load(ctx context.Context, tabID int) error { return f(ctx, tabID) }

func ok(context.Context, Message) Response { return Response{Success: true} }

func TestSendNotReady(t *testing.T) {
	r := NewRouter(nil)
	_, err := r.Send(context.Background(), 7, Message{Action: ActionApplyClean})
	assert.ErrorIs(t, err, ErrReceiverNotReady)
}

func TestSendDelivers(t *testing.T) {
	r := NewRouter(nil)
	var got Message
	r.Register(7, HandlerFunc(func(_ context.Context, m Message) Response {
		got = m
		return Response{Success: true}
	}))

	msg := Message{Action: ActionToggleReadingMode, Enabled: true}
	resp, err := r.Send(context.Background(), 7, msg)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, msg, got)
	assert.Equal(t, 1, r.Tabs())

	r.Unregister(7)
	_, err = r.Send(context.Background(), 7, msg)
	assert.ErrorIs(t, err, ErrReceiverNotReady)
}

func TestSendWithRetryLoadsOnce(t *testing.T) {
	var r *Router
	loads := 0
	r = NewRouter(loaderFunc(func(_ context.Context, tabID int) error {
		loads++
		r.Register(tabID, HandlerFunc(ok))
		return nil
	}))
	r.RetryDelay = time.Millisecond

	resp, err := r.SendWithRetry(context.Background(), 3, Message{Action: ActionApplyClean})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, loads)

	_, err = r.SendWithRetry(context.Background(), 3, Message{Action: ActionApplyClean})
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestSendWithRetryGivesUpAfterOneResend(t *testing.T) {
	loads := 0
	r := NewRouter(loaderFunc(func(context.Context, int) error {
		loads++
		return nil
	}))
	r.RetryDelay = time.Millisecond

	_, err := r.SendWithRetry(context.Background(), 3, Message{Action: ActionApplyClean})
	assert.ErrorIs(t, err, ErrReceiverNotReady)
	assert.Equal(t, 1, loads)
}

func TestSendWithRetryLoaderError(t *testing.T) {
	boom := errors.New("no bridge")
	r := NewRouter(loaderFunc(func(context.Context, int) error { return boom }))
	_, err := r.SendWithRetry(context.Background(), 3, Message{Action: ActionApplyClean})
	assert.ErrorIs(t, err, boom)
}

func TestSendWithRetryHonorsContext(t *testing.T) {
	r := NewRouter(nil)
	r.RetryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.SendWithRetry(ctx, 3, Message{Action: ActionApplyClean})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMessageJSON(t *testing.T) {
	p := prefs.Defaults()
	data, err := json.Marshal(Message{Action: ActionToggleFocus, Enabled: true, Preferences: &p, TempDuration: 15})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"action": "toggleFocus",
		"enabled": true,
		"tempDuration": 15,
		"preferences": {"hideAds":true,"hideSidebars":true,"hideRecommendations":true,"hideComments":false,"hidePopups":true,"focusMode":false}
	}`, string(data))
}
