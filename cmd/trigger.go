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

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Queue an issue for investigation and ensure a worker is running",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repository, _ := cmd.Flags().GetString("repo")
		issueNumber, _ := cmd.Flags().GetInt("issue")

		result, err := svc.Trigger(ctx, investigate.TriggerInput{
			Repository:  repository,
			IssueNumber: issueNumber,
		})
		if err != nil {
			return errs.Wrap(err, "trigger investigation")
		}

		worker := "already running"
		if result.WorkerStarted {
			worker = "started"
		}
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"queued=%t reconciled=%d depth=%d worker=%s\n",
			result.Inserted, result.Reconciled, result.QueueDepth, worker,
		); err != nil {
			return errs.Wrap(err, "write trigger output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerCmd.Flags().String("repo", "", "Repository in owner/name form")
	triggerCmd.Flags().Int("issue", 0, "Issue number")
	_ = triggerCmd.MarkFlagRequired("repo")
	_ = triggerCmd.MarkFlagRequired("issue")
}
