package prefs

import (
	"encoding/json"
	"testing"

	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNil(t *testing.T) {
	assert.Equal(t, Defaults(), Resolve(nil))
}

func TestResolveDefaults(t *testing.T) {
	p := Resolve(&Stored{})
	assert.True(t, p.HideAds)
	assert.True(t, p.HideSidebars)
	assert.True(t, p.HideRecommendations)
	assert.False(t, p.HideComments)
	assert.True(t, p.HidePopups)
	assert.False(t, p.FocusMode)
}

func TestResolveUsesStoredValues(t *testing.T) {
	var s Stored
	require.NoError(t, json.Unmarshal([]byte(`{"hideAds":false,"hideComments":true,"focusMode":true}`), &s))

	p := Resolve(&s)
	assert.Equal(t, Preferences{
		HideAds:             false,
		HideSidebars:        true,
		HideRecommendations: true,
		HideComments:        true,
		HidePopups:          true,
		FocusMode:           true,
	}, p)
}

func TestResolveIdempotent(t *testing.T) {
	f, tr := false, true
	partials := []*Stored{
		nil,
		{},
		{HideAds: &f},
		{HideComments: &tr, FocusMode: &tr},
		{HideAds: &f, HideSidebars: &f, HideRecommendations: &f, HideComments: &f, HidePopups: &f, FocusMode: &f},
	}
	for _, s := range partials {
		once := Resolve(s)
		assert.Equal(t, once, Resolve(once.Stored()))
	}
}

func TestEnabledAndWith(t *testing.T) {
	p := Defaults()
	assert.False(t, p.Enabled(rules.Comments))
	assert.True(t, p.Enabled(rules.Ads))
	assert.False(t, p.Enabled(rules.Category("shorts")))

	p = p.With(rules.Comments, true).With(rules.Ads, false)
	assert.True(t, p.Enabled(rules.Comments))
	assert.False(t, p.Enabled(rules.Ads))
}

func TestJSONShape(t *testing.T) {
	data, err := json.Marshal(Preferences{HideAds: true, FocusMode: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hideAds":true,"hideSidebars":false,"hideRecommendations":false,"hideComments":false,"hidePopups":false,"focusMode":true}`, string(data))
}
