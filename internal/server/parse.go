package server

import (
	"errors"
	"fmt"

	"github.com/lotas/attention-cleaner/internal/page"
)

// PageLoad is a parsed "page" message.
type PageLoad struct {
	TabID    int
	URL      string
	Document *page.Document
}

// MutationEvent is a parsed "mutation" message: either a fragment appended
// under Parent, or the elements matching Remove detached.
type MutationEvent struct {
	TabID    int
	Parent   string
	Fragment string
	Remove   string
}

// ParsePage converts an IncomingMsg of type "page" into a parsed document.
func ParsePage(msg IncomingMsg) (*PageLoad, error) {
	if msg.TabID <= 0 {
		return nil, fmt.Errorf("page message: invalid tab id %d", msg.TabID)
	}
	if msg.URL == "" {
		return nil, errors.New("page message: missing url")
	}
	doc, err := page.ParseString(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("page message for tab %d: %w", msg.TabID, err)
	}
	return &PageLoad{TabID: msg.TabID, URL: msg.URL, Document: doc}, nil
}

// ParseMutation validates an IncomingMsg of type "mutation".
func ParseMutation(msg IncomingMsg) (*MutationEvent, error) {
	if msg.TabID <= 0 {
		return nil, fmt.Errorf("mutation message: invalid tab id %d", msg.TabID)
	}
	ev := &MutationEvent{TabID: msg.TabID, Parent: msg.Parent, Fragment: msg.HTML, Remove: msg.Remove}
	switch {
	case ev.Remove != "" && ev.Parent == "":
	case ev.Remove == "" && ev.Parent != "":
	default:
		return nil, fmt.Errorf("mutation message for tab %d: need exactly one of parent or remove", msg.TabID)
	}
	return ev, nil
}
