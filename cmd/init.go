package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yoke233/sleuth/internal/bootstrap"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the state backend",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init")

		if err := app.InitState(ctx); err != nil {
			logging.Error(ctx, "initialize state failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize state")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"state initialized: backend=%s dir=%s\n",
			app.Config.State.Backend, app.Config.State.Dir,
		); err != nil {
			return errs.Wrap(err, "write init output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initCmd)
}
