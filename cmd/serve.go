package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yoke233/sleuth/internal/bootstrap"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/infrastructure/httpapi"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trigger and status HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := httpapi.NewServer(ctx, svc)

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.Start(addr)
		}()
		logging.Info(ctx, "http api listening", slog.String("addr", addr))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr); err != nil {
			return errs.Wrap(err, "write serve output")
		}

		select {
		case err := <-serveErr:
			if err != nil {
				return errs.Wrap(err, "serve http api")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http api")
		}
		logging.Info(ctx, "http api stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
}
