package extract_test

import (
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	"github.com/fwojciec/glimpse/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeights(t *testing.T) {
	t.Parallel()

	t.Run("default weights sum to one", func(t *testing.T) {
		t.Parallel()

		w := extract.DefaultWeights()

		assert.InDelta(t, 1.0, w.Sum(), 1e-9)
		require.NoError(t, w.Validate())
	})

	t.Run("all-ones metrics score exactly one", func(t *testing.T) {
		t.Parallel()

		score := extract.DefaultWeights().Combine(extract.Metrics{Position: 1, Size: 1, Aspect: 1, Context: 1})

		assert.Equal(t, 1.0, score)
	})

	t.Run("rejects weights not summing to one", func(t *testing.T) {
		t.Parallel()

		err := extract.Weights{Position: 0.5, Size: 0.5, Aspect: 0.5}.Validate()

		assert.Equal(t, glimpse.EINVALID, glimpse.ErrorCode(err))
	})

	t.Run("rejects negative weights", func(t *testing.T) {
		t.Parallel()

		err := extract.Weights{Position: 1.5, Size: -0.5}.Validate()

		assert.Equal(t, glimpse.EINVALID, glimpse.ErrorCode(err))
	})
}

func TestScorer_Score(t *testing.T) {
	t.Parallel()

	vp := glimpse.Viewport{Width: 1920, Height: 1080, ScrollHeight: 4000}

	t.Run("full HD 16:9 image in main zone at the top scores near one", func(t *testing.T) {
		t.Parallel()

		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 100, Left: 50, Width: 1820, Height: 1024}, Natural: [2]int{1920, 1080}}

		s := &extract.Scorer{}
		sc := s.Score(extract.Candidate{Element: el, URL: "https://example.com/a.jpg"}, vp)

		assert.Equal(t, 1.0, sc.Metrics.Size)
		assert.InDelta(t, 1.0, sc.Metrics.Aspect, 1e-9)
		assert.Equal(t, 1.0, sc.Metrics.Context)
		assert.InDelta(t, 1-100.0/4000, sc.Metrics.Position, 1e-9)
	})

	t.Run("offscreen candidate gets low context score", func(t *testing.T) {
		t.Parallel()

		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 2000, Left: 100, Width: 400, Height: 300}, Natural: [2]int{400, 300}}

		sc := (&extract.Scorer{}).Score(extract.Candidate{Element: el}, vp)

		assert.Equal(t, 0.3, sc.Metrics.Context)
		assert.InDelta(t, 0.5, sc.Metrics.Position, 1e-9)
	})

	t.Run("candidate in viewport margin gets medium context score", func(t *testing.T) {
		t.Parallel()

		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 10, Left: 10, Width: 400, Height: 300}, Natural: [2]int{400, 300}}

		sc := (&extract.Scorer{}).Score(extract.Candidate{Element: el}, vp)

		assert.Equal(t, 0.7, sc.Metrics.Context)
	})

	t.Run("position accounts for scroll offset", func(t *testing.T) {
		t.Parallel()

		scrolled := vp
		scrolled.ScrollY = 1000
		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 1000, Left: 100, Width: 400, Height: 300}, Natural: [2]int{400, 300}}

		sc := (&extract.Scorer{}).Score(extract.Candidate{Element: el}, scrolled)

		assert.InDelta(t, 0.5, sc.Metrics.Position, 1e-9)
	})

	t.Run("all scores stay within bounds", func(t *testing.T) {
		t.Parallel()

		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 9000, Width: 5000, Height: 10}, Natural: [2]int{5000, 10}}

		sc := (&extract.Scorer{}).Score(extract.Candidate{Element: el}, vp)

		for _, v := range []float64{sc.Score, sc.Metrics.Position, sc.Metrics.Size, sc.Metrics.Aspect, sc.Metrics.Context} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	})

	t.Run("custom weights change the ranking", func(t *testing.T) {
		t.Parallel()

		el := &mock.Element{Tag: "img", Box: glimpse.Rect{Top: 100, Left: 100, Width: 200, Height: 200}, Natural: [2]int{200, 200}}
		s := &extract.Scorer{Weights: extract.Weights{Aspect: 1}}

		sc := s.Score(extract.Candidate{Element: el}, vp)

		assert.InDelta(t, 1.0, sc.Score, 1e-9)
	})
}
