package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yoke233/sleuth/internal/bootstrap"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Claim queue ownership and drain pending investigations",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		// Interrupting a cooldown or a long investigation must still
		// release the ownership marker.
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err := svc.RunWorker(ctx)
		if errors.Is(err, investigate.ErrWorkerActive) {
			// Mutual exclusion, not a failure: another worker already
			// drains the same queue.
			logging.Info(ctx, "another worker is active, exiting")
			if _, writeErr := fmt.Fprintln(cmd.OutOrStdout(), "another worker is already running"); writeErr != nil {
				return errs.Wrap(writeErr, "write worker output")
			}
			return nil
		}
		if err != nil {
			return errs.Wrap(err, "run worker")
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "worker finished"); err != nil {
			return errs.Wrap(err, "write worker output")
		}
		return nil
	}),
}

func init() {
	workerCmd.AddCommand(runCmd)
}
