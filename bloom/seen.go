// Package bloom suppresses duplicate page URLs with a Bloom filter.
package bloom

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Seen remembers page URLs. Filter hits are confirmed against the recorded
// keys, so a distinct URL is never reported as seen.
//
// Seen is safe for concurrent use.
type Seen struct {
	mu   sync.Mutex
	f    *bloom.BloomFilter
	keys map[string]struct{}
}

// NewSeen creates a filter sized for n expected URLs with the given false
// positive rate. The rate only affects how often a hit needs confirming.
func NewSeen(n uint, fpRate float64) *Seen {
	return &Seen{
		f:    bloom.NewWithEstimates(n, fpRate),
		keys: make(map[string]struct{}, n),
	}
}

// Check records url and reports whether it had been recorded before.
// URLs differing only in fragment, host case or a trailing slash are the
// same page.
func (s *Seen) Check(rawURL string) bool {
	key := Key(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f.TestOrAddString(key) {
		if _, ok := s.keys[key]; ok {
			return true
		}
	}
	s.keys[key] = struct{}{}
	return false
}

// Key returns the identity of a page URL.
func Key(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
