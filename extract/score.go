package extract

import (
	"math"

	"github.com/fwojciec/glimpse"
)

// Reference dimensions for the size score: a full HD image scores 1.
const (
	referenceWidth  = 1920
	referenceHeight = 1080
)

// Main content zone margins in CSS pixels.
const (
	mainZoneTop  = 100
	mainZoneSide = 50
)

// Context scores by zone.
const (
	contextMain      = 1.0
	contextMargin    = 0.7
	contextOffscreen = 0.3
)

// idealRatios are the common photographic and video aspect ratios.
var idealRatios = []float64{16.0 / 9, 4.0 / 3, 3.0 / 2, 1, 21.0 / 9}

// Weights are the relative importances of the four sub-scores.
type Weights struct {
	Position float64
	Size     float64
	Aspect   float64
	Context  float64
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{Position: 0.35, Size: 0.35, Aspect: 0.20, Context: 0.10}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Position + w.Size + w.Aspect + w.Context
}

// Validate returns an error unless all weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Position < 0 || w.Size < 0 || w.Aspect < 0 || w.Context < 0 {
		return glimpse.Errorf(glimpse.EINVALID, "weights must not be negative")
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return glimpse.Errorf(glimpse.EINVALID, "weights must sum to 1, got %g", w.Sum())
	}
	return nil
}

// Combine returns the weighted mean of m. Dividing by the weight sum keeps
// the result in [0,1] and makes all-ones metrics score exactly 1.
func (w Weights) Combine(m Metrics) float64 {
	sum := w.Sum()
	if sum <= 0 {
		return 0
	}
	return (w.Position*m.Position + w.Size*m.Size + w.Aspect*m.Aspect + w.Context*m.Context) / sum
}

// Metrics are the sub-scores of a candidate, each in [0,1].
type Metrics struct {
	Position float64
	Size     float64
	Aspect   float64
	Context  float64
}

// ScoredCandidate is a candidate with its relevance score.
type ScoredCandidate struct {
	Candidate
	Score   float64
	Metrics Metrics
}

// Scorer computes weighted relevance scores.
type Scorer struct {
	// Weights defaults to DefaultWeights when zero.
	Weights Weights
}

// Score computes the sub-scores of c against the viewport and combines them.
func (s *Scorer) Score(c Candidate, vp glimpse.Viewport) ScoredCandidate {
	w := s.Weights
	if w == (Weights{}) {
		w = DefaultWeights()
	}

	width, height := ResolvedSize(c.Element)
	rect := c.Element.Rect()

	m := Metrics{
		Position: positionScore(rect.Top+vp.ScrollY, vp.ScrollHeight),
		Size:     sizeScore(width, height),
		Aspect:   aspectScore(width, height),
		Context:  contextScore(rect, vp),
	}
	return ScoredCandidate{Candidate: c, Score: w.Combine(m), Metrics: m}
}

func positionScore(docTop, scrollHeight float64) float64 {
	if scrollHeight <= 0 {
		return 1
	}
	return clamp(1 - docTop/scrollHeight)
}

func sizeScore(width, height int) float64 {
	return math.Min(1, float64(width)*float64(height)/(referenceWidth*referenceHeight))
}

func aspectScore(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	ratio := float64(width) / float64(height)
	var best float64
	for _, ideal := range idealRatios {
		best = math.Max(best, 1-math.Abs(ratio-ideal)/ideal)
	}
	return clamp(best)
}

func contextScore(r glimpse.Rect, vp glimpse.Viewport) float64 {
	if !vp.Contains(r) {
		return contextOffscreen
	}
	if r.Top >= mainZoneTop && r.Left >= mainZoneSide && r.Right() <= vp.Width-mainZoneSide {
		return contextMain
	}
	return contextMargin
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
