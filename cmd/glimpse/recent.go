package main

import (
	"fmt"

	"github.com/fwojciec/glimpse"
)

// Run executes the recent command.
func (c *RecentCmd) Run(deps *Dependencies) error {
	items, err := deps.Store.RecentItems(deps.Ctx, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glimpse.ErrorMessage(err))
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(deps.Stdout, "No saved previews. Use 'glimpse preview --save' to add some.")
		return nil
	}

	for _, item := range items {
		title := item.URL
		if item.Title != nil {
			title = *item.Title
		}
		fmt.Fprintf(deps.Stdout, "%s  %s\n", item.URL, title)
	}

	return nil
}
