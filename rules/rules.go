// Package rules provides the site-rule registry used to tune extraction
// for sites whose markup needs special handling.
package rules

import (
	"strings"
	"time"

	"github.com/fwojciec/glimpse"
)

var _ glimpse.SiteRuleMatcher = (*Registry)(nil)

// Registry matches hostnames against rules in registration order, so more
// specific domain patterns must be registered before looser ones.
type Registry struct {
	rules []glimpse.SiteRule
}

// NewRegistry creates a Registry holding the given rules in order.
func NewRegistry(rules ...glimpse.SiteRule) *Registry {
	r := &Registry{}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// Register appends a rule. Rules with an empty domain are ignored since they
// would match every hostname.
func (r *Registry) Register(rule glimpse.SiteRule) {
	if rule.Domain == "" {
		return
	}
	r.rules = append(r.rules, rule)
}

// Match returns the first rule whose domain is a substring of hostname
// prefixed with a dot. A domain written with a leading dot, such as
// ".x.com", therefore only matches at a label boundary.
func (r *Registry) Match(hostname string) *glimpse.SiteRule {
	hostname = "." + strings.ToLower(hostname)
	for i := range r.rules {
		if strings.Contains(hostname, strings.ToLower(r.rules[i].Domain)) {
			rule := r.rules[i]
			return &rule
		}
	}
	return nil
}

// Rules returns a copy of the registered rules in match order.
func (r *Registry) Rules() []glimpse.SiteRule {
	out := make([]glimpse.SiteRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Defaults returns the built-in rules.
func Defaults() []glimpse.SiteRule {
	return []glimpse.SiteRule{
		{
			Domain:        ".music.youtube.com",
			Name:          "YouTube Music",
			WaitFor:       "ytmusic-player-bar",
			ImageSelector: "ytmusic-player-bar img, #thumbnail img",
			SinglePageApp: true,
		},
		{
			Domain:        ".youtube.com",
			Name:          "YouTube",
			WaitFor:       "#movie_player, ytd-app",
			ImageSelector: "video, #thumbnail img, ytd-thumbnail img",
			TitleSelector: "h1.ytd-watch-metadata yt-formatted-string",
			SinglePageApp: true,
			SettleDelay:   800 * time.Millisecond,
		},
		{
			Domain:             ".x.com",
			Name:               "X",
			WaitFor:            "article[data-testid='tweet']",
			ImageSelector:      "article [data-testid='tweetPhoto'] img",
			PreferFirstVisible: true,
			SinglePageApp:      true,
		},
		{
			Domain:             ".twitter.com",
			Name:               "Twitter",
			WaitFor:            "article[data-testid='tweet']",
			ImageSelector:      "article [data-testid='tweetPhoto'] img",
			PreferFirstVisible: true,
			SinglePageApp:      true,
		},
		{
			Domain:             ".instagram.com",
			Name:               "Instagram",
			WaitFor:            "article img, main img",
			ImageSelector:      "article img, main img",
			MinImageSize:       150,
			PreferFirstVisible: true,
			SinglePageApp:      true,
		},
		{
			Domain:             ".pinterest.",
			Name:               "Pinterest",
			WaitFor:            "[data-test-id='pin-closeup-image'], [data-test-id='pin']",
			ImageSelector:      "[data-test-id='pin-closeup-image'] img, [data-test-id='pin'] img",
			MinImageSize:       150,
			PreferFirstVisible: true,
			SinglePageApp:      true,
		},
		{
			Domain:        ".reddit.com",
			Name:          "Reddit",
			WaitFor:       "shreddit-post, [data-testid='post-container']",
			ImageSelector: "shreddit-post img, [data-testid='post-container'] img",
			TitleSelector: "shreddit-post h1, [data-testid='post-container'] h1",
			SinglePageApp: true,
		},
		{
			Domain:        ".amazon.",
			Name:          "Amazon",
			WaitFor:       "#landingImage, #imgTagWrapperId img",
			ImageSelector: "#landingImage, #imgTagWrapperId img, #main-image-container img",
			TitleSelector: "#productTitle",
		},
		{
			Domain:        ".figma.com",
			Name:          "Figma",
			WaitFor:       "canvas",
			SinglePageApp: true,
			SettleDelay:   1500 * time.Millisecond,
		},
		{
			Domain:        ".github.com",
			Name:          "GitHub",
			SinglePageApp: true,
			SettleDelay:   300 * time.Millisecond,
		},
		{
			Domain:        ".medium.com",
			Name:          "Medium",
			WaitFor:       "article",
			ImageSelector: "article figure img",
			MinImageSize:  200,
		},
	}
}
