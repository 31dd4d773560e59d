package rules

var builtin = map[string]Entry{
	"www.youtube.com": {
		Ads: []string{
			".video-ads",
			".ytp-ad-module",
			"ytd-display-ad-renderer",
			"ytd-promoted-sparkles-web-renderer",
			"#player-ads",
		},
		Sidebars: []string{"#secondary", "#related"},
		Recommendations: []string{
			"#related",
			"#secondary",
			"ytd-watch-next-secondary-results-renderer",
			"ytd-compact-video-renderer",
			"#items.ytd-watch-next-secondary-results-renderer",
		},
		Comments: []string{"#comments", "ytd-comments", "#comment-teaser"},
		Popups: []string{
			"ytd-popup-container",
			"tp-yt-paper-dialog",
			".ytd-consent-bump-v2-lightbox",
		},
	},
	"youtube.com": {
		Ads:             []string{".video-ads", ".ytp-ad-module"},
		Sidebars:        []string{"#secondary"},
		Recommendations: []string{"#related", "#secondary", "ytd-watch-next-secondary-results-renderer"},
		Comments:        []string{"#comments"},
		Popups:          []string{"ytd-popup-container"},
	},
	"medium.com": {
		Ads:             []string{`[class*="ad-"]`, `[id*="ad-"]`},
		Sidebars:        []string{"aside", `[class*="sidebar"]`},
		Recommendations: []string{`[class*="recommendations"]`, `[class*="relatedStories"]`, "aside"},
		Comments:        []string{`[class*="responses"]`},
		Popups: []string{
			`[data-test-id="meter-card"]`,
			`[class*="overlay"]`,
			`[role="dialog"]`,
			".meteredContent",
		},
	},
	"www.reddit.com": {
		Ads: []string{
			"shreddit-ad-post",
			`[data-testid="ad-post"]`,
			"[data-adclicked-elements]",
			".promotedlink",
		},
		Sidebars: []string{`[slot="right-sidebar"]`, `aside[aria-label="Similar subreddits"]`},
		Recommendations: []string{
			`[data-testid="popular-communities"]`,
			`[data-testid="trending-posts"]`,
			"shreddit-recent-posts-sidebar",
			"shreddit-subreddit-recommendations",
			`[slot="right-sidebar"]`,
		},
		Comments: []string{},
		Popups: []string{
			`shreddit-async-loader[bundlename*="modal"]`,
			`[role="dialog"]`,
			"shreddit-seo-blocker-modal",
		},
	},
	"reddit.com": {
		Ads:             []string{"shreddit-ad-post", ".promotedlink"},
		Sidebars:        []string{`[slot="right-sidebar"]`},
		Recommendations: []string{`[slot="right-sidebar"]`},
		Comments:        []string{},
		Popups:          []string{`[role="dialog"]`},
	},
	"twitter.com": {
		Ads:      []string{`[data-testid="placementTracking"]`, `[data-testid*="Promoted"]`},
		Sidebars: []string{`[data-testid="sidebarColumn"]`, "aside"},
		Recommendations: []string{
			`[data-testid="sidebarColumn"]`,
			`[aria-label="Timeline: Trending now"]`,
			`aside[aria-label*="Subscribe"]`,
		},
		Comments: []string{},
		Popups:   []string{`[role="dialog"]`, `[data-testid="sheetDialog"]`},
	},
	"x.com": {
		Ads:             []string{`[data-testid="placementTracking"]`},
		Sidebars:        []string{`[data-testid="sidebarColumn"]`},
		Recommendations: []string{`[data-testid="sidebarColumn"]`},
		Comments:        []string{},
		Popups:          []string{`[role="dialog"]`},
	},
	"www.instagram.com": {
		Ads:             []string{`article:has([class*="Sponsored"])`},
		Sidebars:        []string{`div[role="complementary"]`, "aside"},
		Recommendations: []string{`section:has([aria-label*="Suggested"])`, `[class*="Suggested"]`},
		Comments:        []string{},
		Popups:          []string{`[role="dialog"]`, `[role="presentation"]`},
	},
	"www.facebook.com": {
		Ads:      []string{`[data-pagelet*="FeedUnit"]:has([aria-label*="Sponsored"])`},
		Sidebars: []string{`[role="complementary"]`, `div[data-pagelet="RightRail"]`},
		Recommendations: []string{
			`[aria-label*="Suggested"]`,
			`[aria-label*="Stories"]`,
			`div[role="complementary"]`,
		},
		Comments: []string{},
		Popups:   []string{`[role="dialog"]`},
	},
	"www.linkedin.com": {
		Ads:             []string{".ad-banner-container", `[data-test-id="ad-banner"]`},
		Sidebars:        []string{".scaffold-layout__aside", "aside"},
		Recommendations: []string{".scaffold-layout__aside"},
		Comments:        []string{},
		Popups:          []string{`[role="dialog"]`, ".artdeco-modal"},
	},
	"www.tiktok.com": {
		Ads:             []string{`[data-e2e="ad-tag"]`},
		Sidebars:        []string{`[data-e2e="right-sidebar"]`},
		Recommendations: []string{`[data-e2e="recommend-list"]`},
		Comments:        []string{},
		Popups:          []string{`[data-e2e="modal"]`, `[role="dialog"]`},
	},
	GenericOrigin: {
		Ads: []string{
			`[class*="ad-"]`,
			`[id*="ad-"]`,
			`[class*="advertisement"]`,
			`iframe[src*="doubleclick"]`,
			`iframe[src*="googlesyndication"]`,
			".ad",
			".ads",
			"#ad",
			"#ads",
		},
		Sidebars: []string{"aside", `[class*="sidebar"]`, `[id*="sidebar"]`},
		Recommendations: []string{
			`[class*="recommended"]`,
			`[class*="related"]`,
			`[class*="trending"]`,
		},
		Comments: []string{`[class*="comment"]`, "#comments", `[id*="comment"]`},
		Popups: []string{
			`[class*="modal"]`,
			`[class*="popup"]`,
			`[class*="overlay"]`,
			`[role="dialog"]`,
			`[class*="newsletter"]`,
		},
	},
}
