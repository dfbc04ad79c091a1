package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/domain"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "status <item-id> <status>",
		Short: "Update a backlog item's status and flush",
		Long: `Update a backlog item's status and flush the change to disk.

Valid statuses: Planned, Researching, Implementing, Complete, Failed, Obsolete.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, status := args[0], domain.Status(args[1])
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q (valid: %v)", args[1], domain.AllStatuses())
			}

			if _, err := resolveSession(cmd, c, sessionID); err != nil {
				return err
			}
			if err := c.Sessions.UpdateItemStatus(itemID, status); err != nil {
				return err
			}
			if err := c.Sessions.FlushUpdates(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", itemID, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (default: latest)")

	return cmd
}
