package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridstitch/gridstitch/internal/web"
	"github.com/gridstitch/gridstitch/pkg/config"
	"github.com/gridstitch/gridstitch/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	path string
	addr string
}

// newServeCmd creates the serve command: a local web preview of the
// mosaic where tiles can be toggled by clicking, persisting through the
// same exclusion store as select.
func newServeCmd() *cobra.Command {
	opts := serveOpts{path: ".", addr: "localhost:8731"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a browser preview with clickable tile toggling",
		Long: `Serve a local web page that shows the assembled mosaic next to the tile
grid. Clicking a tile excludes or restores it, exactly like the select
command, and re-renders the preview.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", opts.path, "tile directory")
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")

	return cmd
}

func runServe(cmd *cobra.Command, o *serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(o.path)
	if err != nil {
		return err
	}
	opts := cfg.PipelineOptions(o.path)
	opts.Logger = logger

	store, keyer, err := newCommandCache(ctx, cfg, o.path, false)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, keyer, logger)
	srv, err := web.NewServer(runner, opts, namingParser(cfg.Pattern, cfg.Cols), logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              o.addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	printSuccess("Preview server running")
	printKeyValue("URL", fmt.Sprintf("http://%s/", o.addr))
	printDetail("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
