package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yoke233/sleuth/internal/bootstrap"
	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pending queue, completed issues and worker liveness",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *investigate.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		snapshot, err := svc.Status(ctx)
		if err != nil {
			return errs.Wrap(err, "load status")
		}

		output, _ := cmd.Flags().GetString("output")
		switch output {
		case "json":
			raw, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return errs.Wrap(err, "marshal status")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		case "yaml":
			raw, err := yaml.Marshal(snapshot)
			if err != nil {
				return errs.Wrap(err, "marshal status")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(raw))
		default:
			printStatusText(cmd, snapshot)
		}
		return nil
	}),
}

func printStatusText(cmd *cobra.Command, snapshot investigate.StatusSnapshot) {
	out := cmd.OutOrStdout()

	worker := "not running"
	if snapshot.WorkerAlive {
		worker = fmt.Sprintf("running (pid %d)", snapshot.WorkerPID)
	}
	fmt.Fprintf(out, "worker: %s\n", worker)

	fmt.Fprintf(out, "pending: %d\n", len(snapshot.Pending))
	for _, item := range snapshot.Pending {
		fmt.Fprintf(out, "  %s (queued %s)\n", item.Ref(), item.EnqueuedAt.Format("2006-01-02 15:04:05 MST"))
	}

	repositories := make([]string, 0, len(snapshot.Completed))
	for repository := range snapshot.Completed {
		repositories = append(repositories, repository)
	}
	sort.Strings(repositories)

	fmt.Fprintln(out, "completed:")
	for _, repository := range repositories {
		fmt.Fprintf(out, "  %s: %v\n", repository, snapshot.Completed[repository])
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("output", "o", "text", "Output format (text|json|yaml)")
}
