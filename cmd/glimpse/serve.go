package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	glimpsehttp "github.com/fwojciec/glimpse/http"
)

// shutdownTimeout bounds graceful server shutdown.
const shutdownTimeout = 5 * time.Second

// Run executes the serve command. The bridge answers for the live page
// until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	live, err := deps.OpenLive(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glimpse.ErrorMessage(err))
		return err
	}
	defer live.Close()

	visit := extract.NewVisit(live.Page, deps.Extractor, deps.Rules)
	visit.Logger = deps.Logger
	stop := visit.Watch(deps.Ctx, live.Navigator)
	defer stop()

	handler := glimpsehttp.NewHandler(visit, live.Capturer, deps.Store)
	handler.Logger = deps.Logger

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	fmt.Fprintf(deps.Stdout, "Serving %s on http://%s/message\n", c.URL, ln.Addr())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
