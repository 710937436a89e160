package batch

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Pacer spaces out page loads that land on the same site. Hosts under one
// registrable domain (www.example.co.uk, img.example.co.uk) share a token
// bucket, since they are usually served by the same origin fleet.
type Pacer struct {
	rules    glimpse.SiteRuleMatcher
	interval time.Duration

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewPacer allows rps loads per second per site. A rule with MinInterval
// set paces its site at that interval instead. With rps <= 0 only sites
// whose rule sets an interval are paced. rules may be nil.
func NewPacer(rps float64, rules glimpse.SiteRuleMatcher) *Pacer {
	p := &Pacer{
		rules:   rules,
		buckets: make(map[string]*rate.Limiter),
	}
	if rps > 0 {
		p.interval = time.Duration(float64(time.Second) / rps)
	}
	return p
}

// Wait blocks until a load of rawURL may start.
func (p *Pacer) Wait(ctx context.Context, rawURL string) error {
	bucket := p.bucket(rawURL)
	if bucket == nil {
		return ctx.Err()
	}
	return bucket.Wait(ctx)
}

// bucket returns nil for unpaced sites.
func (p *Pacer) bucket(rawURL string) *rate.Limiter {
	host := hostname(rawURL)
	key := SiteKey(host)

	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.buckets[key]; ok {
		return b
	}
	interval := p.interval
	if p.rules != nil && host != "" {
		if rule := p.rules.Match(host); rule != nil && rule.MinInterval > 0 {
			interval = rule.MinInterval
		}
	}
	var b *rate.Limiter
	if interval > 0 {
		b = rate.NewLimiter(rate.Every(interval), 1)
	}
	p.buckets[key] = b
	return b
}

// SiteKey returns the registrable domain of host (eTLD+1), or the lowercased
// host itself for IP addresses, single-label hosts and public suffixes.
func SiteKey(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return site
	}
	return host
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
