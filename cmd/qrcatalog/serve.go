package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/internal/route"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog endpoint: POST a spreadsheet as \"file\", get the pdf back",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on, defaults to server.host:server.port")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, addr string) error {
	app, err := newApplication(&cfg)
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	app.Logger.Infof("Serving catalogs on http://%s/api/v1/catalogs", ln.Addr())
	return serveHTTP(ctx, ln, route.NewEngine(app))
}

// serveHTTP blocks until ctx is done, then drains open requests.
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
