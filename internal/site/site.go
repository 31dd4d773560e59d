// Package site derives the per-site key from a page address and fetches
// pages for offline cleaning.
package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lotas/attention-cleaner/internal/prefs"
)

// ErrNoOrigin is returned for addresses that have no site origin, such as
// internal browser pages.
var ErrNoOrigin = errors.New("no site detected")

var skipPrefixes = []string{"about:", "moz-extension:", "chrome-extension:", "file:", "chrome:", "resource:", "data:", "view-source:"}

const maxPageSize = 16 << 20

// Origin returns the hostname of rawURL, used as the per-site key.
func Origin(rawURL string) (string, error) {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return "", fmt.Errorf("%s: %w", rawURL, ErrNoOrigin)
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rawURL, ErrNoOrigin)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%s: %w", rawURL, ErrNoOrigin)
	}
	return u.Hostname(), nil
}

// StorageKey returns the store key for an origin: the origin itself, or the
// global record when no site was detected.
func StorageKey(origin string) string {
	if origin == "" {
		return prefs.GlobalKey
	}
	return origin
}

// Fetch downloads a page for offline cleaning. Non-HTTP addresses are
// rejected.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := Origin(rawURL); err != nil {
		return nil, fmt.Errorf("skipping non-HTTP URL: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}
