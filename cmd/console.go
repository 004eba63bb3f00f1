package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yoke233/sleuth/internal/bootstrap"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/usecase/console"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Watch the queue and worker in a terminal UI",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		model := console.NewModel(ctx, svc, console.Options{
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().Duration("refresh-interval", 2*time.Second, "Auto refresh interval")
}
