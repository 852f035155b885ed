package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowlens/internal/server"
	"github.com/matzehuels/flowlens/internal/watch"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/state"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		mapping  mappingFlags
		addr     string
		watchOn  bool
		debounce time.Duration
		ttl      time.Duration
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the workspace API over HTTP",
		Long: `Serve the workspace API over HTTP.

Clients create workspaces by uploading CSV or JSON rows to
POST /api/workspaces. Given a file, serve also preloads it as a workspace
that never expires; with --watch the workspace reloads whenever the file
changes.`,
		Example: `  flowlens serve
  flowlens serve trips.csv --watch --addr :8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watchOn = c.cfg.Server.Watch
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = c.cfg.Server.Debounce.Duration
			}

			stateOpts := append(c.cfg.StateOptions(), state.WithMapping(mapping.apply(c.cfg.Columns)))
			cc, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			reg := session.NewRegistry(ttl, logger.With("component", "session"))
			srv := server.New(reg, server.Options{
				StateOptions: stateOpts,
				Logger:       logger.With("component", "http"),
				Cache:        cc,
			})

			g, gctx := errgroup.WithContext(ctx)
			var preloaded string

			if len(args) == 1 {
				input := args[0]
				ds, err := c.readInput(ctx, input, mapping.format)
				if err != nil {
					return err
				}
				ws, err := reg.Create(ctx, ds, stateOpts...)
				if err != nil {
					return err
				}
				if err := reg.Pin(ctx, ws.ID); err != nil {
					return err
				}
				preloaded = ws.ID
				printSuccess("Loaded %s as workspace %s", input, StyleHighlight.Render(ws.ID))
				printStats(ds.Len(), len(ws.Store.Current().Graph().Edges()), false)

				if watchOn {
					w := watch.New(input, ws.Store, watch.Options{
						Debounce: debounce,
						Load: func(ctx context.Context, path string) (rows.Dataset, error) {
							return c.readInput(ctx, path, mapping.format)
						},
						Logger: logger.With("component", "watch"),
					})
					g.Go(func() error { return w.Run(gctx) })
				}
			} else if watchOn {
				printWarning("--watch needs a file argument, ignoring")
			}

			printInfo("Listening on %s", StyleHighlight.Render("http://"+addr))
			if len(args) == 1 {
				printNextStep("Fetch the flow view", "curl http://"+addr+"/api/workspaces/"+preloaded+"/views/flow")
			}
			g.Go(func() error { return reg.Run(gctx, session.DefaultCleanupInterval) })
			g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
			return g.Wait()
		},
	}

	mapping.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", fmt.Sprintf("listen address (default %q)", c.cfg.Server.Addr))
	cmd.Flags().BoolVar(&watchOn, "watch", false, "reload the preloaded file when it changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a reload")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "lifetime of uploaded workspaces")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of rendered SVG views")
	registerColumnCompletion(cmd)

	return cmd
}

// readInput reads a row file the way the pipeline load stage does.
func (c *CLI) readInput(ctx context.Context, path, format string) (rows.Dataset, error) {
	opts := pipeline.Options{Input: path, InputFormat: format}
	if err := opts.ValidateForLoad(); err != nil {
		return rows.Dataset{}, err
	}
	r, err := c.newRunner(ctx, true)
	if err != nil {
		return rows.Dataset{}, err
	}
	ds, _, err := r.Load(ctx, opts)
	return ds, err
}
