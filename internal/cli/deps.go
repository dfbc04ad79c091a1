package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
)

// newDepsCommand creates the deps command.
func newDepsCommand(c *app.Container) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "deps <subtask-id> [dependency-id...]",
		Short: "Replace a subtask's dependencies and flush",
		Long: `Replace a subtask's dependency set and flush the change to disk.

The flush re-runs cycle detection: a change that would make the
dependency graph cyclic is rejected and nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtaskID, deps := args[0], args[1:]

			if _, err := resolveSession(cmd, c, sessionID); err != nil {
				return err
			}
			if err := c.Sessions.SetDependencies(subtaskID, deps); err != nil {
				return err
			}
			if err := c.Sessions.FlushUpdates(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s depends on %d item(s)\n", subtaskID, len(deps))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (default: latest)")

	return cmd
}
