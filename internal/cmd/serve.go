package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/gantry/internal/api"
	"github.com/Iron-Ham/gantry/internal/store"
	"github.com/Iron-Ham/gantry/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve project timelines over HTTP",
	Long: `Serve project timelines over HTTP.

Every project gets its own timeline session. Pointer events are posted to
/api/projects/<id>/pointer/{down,move,up,cancel} and each response carries
the updated timeline. GET /api/projects/<id>/timeline.svg returns the
current timeline as an SVG image.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("debug", false, "run gin in debug mode")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(api.Options{
		Store:         e.store,
		Mode:          e.mode,
		Zoom:          e.cfg.View.Zoom,
		MinRangeDays:  e.cfg.View.MinRangeDays,
		CommitTimeout: e.cfg.Store.CommitTimeout(),
		Logger:        e.logger,
	})

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return server.Run(ctx, e.cfg.Server.Addr, e.cfg.Server.ShutdownTimeout())
	})

	if pather, ok := e.store.(store.Pather); ok && e.cfg.Watch.Enabled {
		w, err := watch.New(e.cfg.Watch.Debounce(), e.logger)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.AddDatabase(pather.Path()); err != nil {
			w.Stop()
			return fmt.Errorf("failed to watch %s: %w", pather.Path(), err)
		}
		w.SetCallback(func(string) { server.ReloadAll(ctx) })
		p.Go(func(ctx context.Context) error {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving timelines on http://%s\n", e.cfg.Server.Addr)
	return p.Wait()
}
