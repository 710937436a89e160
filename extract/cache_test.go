package extract_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	"github.com/stretchr/testify/assert"
)

// clock is a manually advanced time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache() (*extract.Cache, *clock) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := extract.NewCache()
	c.Now = clk.Now
	return c, clk
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("returns what was set", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache()
		p := &glimpse.Preview{Title: "Foo"}
		c.Set("k", p)

		assert.Same(t, p, c.Get("k"))
	})

	t.Run("returns nil for missing keys", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache()

		assert.Nil(t, c.Get("missing"))
	})

	t.Run("expires entries after the ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache()
		c.Set("k", &glimpse.Preview{})

		clk.Advance(59 * time.Second)
		assert.NotNil(t, c.Get("k"))

		clk.Advance(time.Second)
		assert.Nil(t, c.Get("k"))
		assert.Equal(t, 0, c.Len(), "expired entry is dropped")
	})

	t.Run("evicts the oldest entry beyond capacity", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache()
		for i := range 11 {
			c.Set(fmt.Sprintf("k%d", i), &glimpse.Preview{})
			clk.Advance(time.Millisecond)
		}

		assert.Equal(t, 10, c.Len())
		assert.Nil(t, c.Get("k0"))
		assert.NotNil(t, c.Get("k1"))
		assert.NotNil(t, c.Get("k10"))
	})

	t.Run("re-setting a key counts as a new insertion", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache()
		for i := range 10 {
			c.Set(fmt.Sprintf("k%d", i), &glimpse.Preview{})
		}
		c.Set("k0", &glimpse.Preview{Title: "again"})
		c.Set("k10", &glimpse.Preview{})

		assert.Equal(t, 10, c.Len())
		assert.Nil(t, c.Get("k1"))
		assert.Equal(t, "again", c.Get("k0").Title)
	})

	t.Run("re-setting refreshes the ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache()
		c.Set("k", &glimpse.Preview{})
		clk.Advance(50 * time.Second)
		c.Set("k", &glimpse.Preview{})
		clk.Advance(50 * time.Second)

		assert.NotNil(t, c.Get("k"))
	})

	t.Run("clear drops everything", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache()
		c.Set("a", &glimpse.Preview{})
		c.Set("b", &glimpse.Preview{})
		c.Clear()

		assert.Equal(t, 0, c.Len())
		assert.Nil(t, c.Get("a"))
	})
}
