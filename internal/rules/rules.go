// Package rules holds the per-site selector table and plans which
// selectors to hide for a set of enabled categories.
package rules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Category groups selectors that share one on/off preference.
type Category string

const (
	Ads             Category = "ads"
	Sidebars        Category = "sidebars"
	Recommendations Category = "recommendations"
	Comments        Category = "comments"
	Popups          Category = "popups"
)

// Categories lists every category in plan order.
var Categories = []Category{Ads, Sidebars, Recommendations, Comments, Popups}

// GenericOrigin is the fallback entry used when an origin has no rules.
const GenericOrigin = "generic"

// Entry holds the selectors for one origin, per category.
type Entry struct {
	Ads             []string `yaml:"ads,omitempty"`
	Sidebars        []string `yaml:"sidebars,omitempty"`
	Recommendations []string `yaml:"recommendations,omitempty"`
	Comments        []string `yaml:"comments,omitempty"`
	Popups          []string `yaml:"popups,omitempty"`
}

// Selectors returns the selector list for a category, nil if undefined.
func (e Entry) Selectors(c Category) []string {
	switch c {
	case Ads:
		return e.Ads
	case Sidebars:
		return e.Sidebars
	case Recommendations:
		return e.Recommendations
	case Comments:
		return e.Comments
	case Popups:
		return e.Popups
	}
	return nil
}

// Table maps exact origins to rule entries. A Table is built once and
// never mutated afterwards, so it is safe to share between page contexts.
type Table struct {
	entries map[string]Entry
}

// Default returns the built-in rule table.
func Default() *Table {
	return New(builtin)
}

// New returns a table holding a copy of entries. Without a generic entry,
// origins with no entry of their own plan nothing.
func New(entries map[string]Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for origin, e := range entries {
		t.entries[origin] = e
	}
	return t
}

// LoadFile returns the built-in table overlaid with the entries from a YAML
// file keyed by origin. A file entry replaces the built-in entry for the
// same origin as a whole.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var overlay map[string]Entry
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	t := Default()
	for origin, e := range overlay {
		t.entries[origin] = e
	}
	return t, nil
}

// Lookup returns the entry for origin by exact match, falling back to the
// generic entry. There is no wildcard or suffix matching: "youtube.com" and
// "www.youtube.com" are distinct keys.
func (t *Table) Lookup(origin string) Entry {
	if e, ok := t.entries[origin]; ok {
		return e
	}
	return t.entries[GenericOrigin]
}

// Has reports whether origin has its own entry.
func (t *Table) Has(origin string) bool {
	_, ok := t.entries[origin]
	return ok
}

// Origins returns all origins with an entry, sorted.
func (t *Table) Origins() []string {
	out := make([]string, 0, len(t.entries))
	for origin := range t.entries {
		out = append(out, origin)
	}
	sort.Strings(out)
	return out
}

// Plan returns the selectors to hide on origin. Categories are visited in
// the order of Categories and each enabled category contributes its list
// unchanged. Selectors shared by two categories appear twice.
func (t *Table) Plan(origin string, enabled func(Category) bool) []string {
	entry := t.Lookup(origin)
	var out []string
	for _, c := range Categories {
		if !enabled(c) {
			continue
		}
		out = append(out, entry.Selectors(c)...)
	}
	return out
}
