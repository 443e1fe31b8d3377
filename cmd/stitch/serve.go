package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/vango-dev/stitch"
	"github.com/vango-dev/stitch/internal/config"
	"github.com/vango-dev/stitch/internal/dev"
	"github.com/vango-dev/stitch/internal/errors"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		mode    string
		release bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		Long: `Load every template, validate the component tree and serve
documents over HTTP until interrupted.

Examples:
  stitch serve
  stitch serve --addr=:8080 --mode=buffer
  stitch serve --watch
  stitch serve -c deploy/stitch.hcl --release`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if mode != "" {
				cfg.Server.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if release {
				cfg.Release = true
			}

			logger := flags.logger(cmd.ErrOrStderr())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			build := appBuilder(cfg, logger)
			var h http.Handler
			if watch {
				if cfg.TemplatesPath() == "" {
					return errors.New("S103").WithDetail("--watch needs templates.dir; S3 sources cannot be watched")
				}
				h, err = watchTemplates(ctx, cfg, build, logger)
			} else {
				h, err = build(ctx)
			}
			if err != nil {
				return err
			}
			timeout, _ := cfg.ShutdownTimeout()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return errors.New("S501").Wrap(err)
			}
			success(cmd.OutOrStdout(), "Serving on http://%s", ln.Addr())
			if watch {
				info(cmd.OutOrStdout(), "Watching %s for changes", cfg.TemplatesPath())
			}
			return serve(ctx, ln, h, timeout)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Output mode: stream or buffer (default from config)")
	cmd.Flags().BoolVar(&release, "release", false, "Hide error details from rendered output")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload templates when they change")

	return cmd
}

// appBuilder loads the template tree and wraps it in an App.
func appBuilder(cfg *config.Config, logger *slog.Logger) dev.BuildFunc {
	return func(ctx context.Context) (http.Handler, error) {
		root, err := loadTree(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return stitch.New(root, appConfig(cfg, logger)), nil
	}
}

// watchTemplates serves the handler from build and rebuilds it whenever a
// template under the configured directory changes. Browsers get a reload
// script that refreshes the page after each successful rebuild.
func watchTemplates(ctx context.Context, cfg *config.Config, build dev.BuildFunc, logger *slog.Logger) (http.Handler, error) {
	notify := dev.NewReloadServer()
	reloader, err := dev.NewReloader(ctx, build, notify, logger)
	if err != nil {
		return nil, err
	}

	watcher := dev.NewWatcher(dev.WatcherConfig{
		Root:    cfg.TemplatesPath(),
		Pattern: cfg.Templates.Pattern,
		Logger:  logger,
	})
	watcher.OnChange(reloader.OnChange(ctx))
	go func() {
		if err := watcher.Start(ctx); err != nil {
			logger.Error("template watcher stopped", "error", err)
		}
		notify.Close()
	}()

	r := chi.NewRouter()
	r.Handle(dev.ReloadPath, notify)
	r.Handle("/*", dev.InjectClient(reloader))
	return r, nil
}

// serve runs an HTTP server on ln until ctx is done, then shuts it down
// within timeout.
func serve(ctx context.Context, ln net.Listener, h http.Handler, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return errors.New("S501").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("S502").Wrap(err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.New("S501").Wrap(err)
	}
	return nil
}
