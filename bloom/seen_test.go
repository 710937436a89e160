package bloom_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/glimpse/bloom"
	"github.com/stretchr/testify/assert"
)

func TestSeen_Check(t *testing.T) {
	t.Parallel()

	s := bloom.NewSeen(1000, 0.01)

	assert.False(t, s.Check("https://example.com/page1"))
	assert.True(t, s.Check("https://example.com/page1"))
	assert.False(t, s.Check("https://example.com/page2"))
}

func TestSeen_EquivalentURLs(t *testing.T) {
	t.Parallel()

	s := bloom.NewSeen(1000, 0.01)
	s.Check("https://Example.com/post/")

	assert.True(t, s.Check("https://example.com/post"))
	assert.True(t, s.Check("https://example.com/post#comments"))
	assert.False(t, s.Check("https://example.com/post?page=2"))
}

func TestSeen_FilterHitsAreConfirmed(t *testing.T) {
	t.Parallel()

	// A one-element filter with a 99% false positive rate reports nearly
	// every key as present.
	s := bloom.NewSeen(1, 0.99)

	for i := range 50 {
		url := fmt.Sprintf("https://example.com/page%d", i)
		assert.False(t, s.Check(url), url)
		assert.True(t, s.Check(url), url)
	}
}

func TestSeen_ConcurrentCheckReportsFirstOnce(t *testing.T) {
	t.Parallel()

	s := bloom.NewSeen(1000, 0.01)
	var fresh atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !s.Check("https://example.com/") {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fresh.Load())
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a", bloom.Key(" https://EXAMPLE.com/a/#x "))
	assert.Equal(t, "https://example.com", bloom.Key("https://example.com/"))
	assert.Equal(t, "not a url", bloom.Key("not a url"))
}
