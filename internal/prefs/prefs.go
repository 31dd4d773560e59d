// Package prefs resolves per-site preference records against the defaults.
package prefs

import "github.com/lotas/attention-cleaner/internal/rules"

// GlobalKey is the store key of the extension-wide default record.
const GlobalKey = "global"

// Preferences is a fully resolved per-origin preference record.
type Preferences struct {
	HideAds             bool `json:"hideAds"`
	HideSidebars        bool `json:"hideSidebars"`
	HideRecommendations bool `json:"hideRecommendations"`
	HideComments        bool `json:"hideComments"`
	HidePopups          bool `json:"hidePopups"`
	FocusMode           bool `json:"focusMode"`
}

// Stored is a preference record as persisted. Any field may be absent.
type Stored struct {
	HideAds             *bool `json:"hideAds,omitempty"`
	HideSidebars        *bool `json:"hideSidebars,omitempty"`
	HideRecommendations *bool `json:"hideRecommendations,omitempty"`
	HideComments        *bool `json:"hideComments,omitempty"`
	HidePopups          *bool `json:"hidePopups,omitempty"`
	FocusMode           *bool `json:"focusMode,omitempty"`
}

// Defaults returns the preferences used for absent fields: every category
// hidden except comments, focus mode off.
func Defaults() Preferences {
	return Preferences{
		HideAds:             true,
		HideSidebars:        true,
		HideRecommendations: true,
		HideComments:        false,
		HidePopups:          true,
		FocusMode:           false,
	}
}

// Resolve merges a stored record with Defaults. A nil record resolves to
// Defaults.
func Resolve(s *Stored) Preferences {
	p := Defaults()
	if s == nil {
		return p
	}
	pick(&p.HideAds, s.HideAds)
	pick(&p.HideSidebars, s.HideSidebars)
	pick(&p.HideRecommendations, s.HideRecommendations)
	pick(&p.HideComments, s.HideComments)
	pick(&p.HidePopups, s.HidePopups)
	pick(&p.FocusMode, s.FocusMode)
	return p
}

func pick(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Stored returns p as a fully specified record, so that
// Resolve(p.Stored()) == p.
func (p Preferences) Stored() *Stored {
	return &Stored{
		HideAds:             boolPtr(p.HideAds),
		HideSidebars:        boolPtr(p.HideSidebars),
		HideRecommendations: boolPtr(p.HideRecommendations),
		HideComments:        boolPtr(p.HideComments),
		HidePopups:          boolPtr(p.HidePopups),
		FocusMode:           boolPtr(p.FocusMode),
	}
}

func boolPtr(b bool) *bool { return &b }

// Enabled reports whether the category's selectors should be hidden.
func (p Preferences) Enabled(c rules.Category) bool {
	switch c {
	case rules.Ads:
		return p.HideAds
	case rules.Sidebars:
		return p.HideSidebars
	case rules.Recommendations:
		return p.HideRecommendations
	case rules.Comments:
		return p.HideComments
	case rules.Popups:
		return p.HidePopups
	}
	return false
}

// With returns a copy of p with category c set to on.
func (p Preferences) With(c rules.Category, on bool) Preferences {
	switch c {
	case rules.Ads:
		p.HideAds = on
	case rules.Sidebars:
		p.HideSidebars = on
	case rules.Recommendations:
		p.HideRecommendations = on
	case rules.Comments:
		p.HideComments = on
	case rules.Popups:
		p.HidePopups = on
	}
	return p
}

// Categories strips FocusMode. Messages to page contexts carry only the
// category flags.
func (p Preferences) Categories() Preferences {
	p.FocusMode = false
	return p
}
