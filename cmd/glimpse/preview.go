package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/batch"
	"github.com/fwojciec/glimpse/bloom"
)

// Run executes the preview command. Items are printed as JSON lines in
// completion order.
func (c *PreviewCmd) Run(deps *Dependencies) error {
	r := &batch.Runner{
		Loader:      deps.Loader,
		Fallback:    deps.Renderer,
		Detector:    deps.Detector,
		Extractor:   deps.Extractor,
		Pacer:       batch.NewPacer(c.Rate, deps.Rules),
		Seen:        bloom.NewSeen(uint(max(len(c.URLs), 1)), 0.001),
		Concurrency: c.Concurrency,
		Logger:      deps.Logger,
	}
	if c.Excerpt {
		r.Excerpter = deps.Excerpter
	}
	if c.Save {
		r.Store = deps.Store
	}

	enc := json.NewEncoder(deps.Stdout)
	var failed int
	r.OnResult = func(res batch.Result) {
		if res.Skipped {
			fmt.Fprintf(deps.Stderr, "skip %s: duplicate\n", res.URL)
			return
		}
		if res.Err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", res.URL, glimpse.ErrorMessage(res.Err))
		}
		if res.Item != nil {
			_ = enc.Encode(res.Item)
		}
	}

	if _, err := r.Run(deps.Ctx, c.URLs); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(c.URLs))
	}
	return nil
}
