package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/domain"
)

// newPlanCommand creates the plan command group.
func newPlanCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the session's backlog plan",
	}
	cmd.AddCommand(newPlanImportCommand(c))
	return cmd
}

// newPlanImportCommand creates the plan import command.
func newPlanImportCommand(c *app.Container) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a backlog plan from a YAML file",
		Long: `Import a full backlog from a YAML file (the planner layer's output)
and install it as the session's backlog.

The plan is validated and cycle-checked before anything is written;
an invalid plan leaves the session untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read plan file: %w", err)
			}

			var backlog domain.Backlog
			if err := yaml.Unmarshal(data, &backlog); err != nil {
				return fmt.Errorf("parse plan file: %w", err)
			}

			if _, err := resolveSession(cmd, c, sessionID); err != nil {
				return err
			}
			if err := c.Sessions.ReplaceBacklog(&backlog); err != nil {
				return err
			}
			if err := c.Sessions.FlushUpdates(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d phase(s)\n", len(backlog.Phases))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (default: latest)")

	return cmd
}
