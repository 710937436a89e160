package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	"github.com/fwojciec/glimpse/normalize"
)

// Run executes the watch command. It prints the initial preview, then a new
// one after each in-app navigation, until the context is canceled.
func (c *WatchCmd) Run(deps *Dependencies) error {
	live, err := deps.OpenLive(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glimpse.ErrorMessage(err))
		return err
	}
	defer live.Close()

	visit := extract.NewVisit(live.Page, deps.Extractor, deps.Rules)
	visit.Logger = deps.Logger

	var mu sync.Mutex
	enc := json.NewEncoder(deps.Stdout)
	emit := func(p *glimpse.Preview) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(normalize.Preview(p))
	}

	unsubscribe := visit.Subscribe(emit)
	defer unsubscribe()

	stop := visit.Watch(deps.Ctx, live.Navigator)
	defer stop()

	emit(visit.Preview(deps.Ctx))

	<-deps.Ctx.Done()
	return nil
}
