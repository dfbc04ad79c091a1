package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	var prdPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or resume a session for a PRD",
		Long: `Create or resume a session for a PRD file.

The PRD content is hashed; if a session directory with the same hash
exists under the sessions root it is resumed, otherwise a new session
is created. When prior sessions exist but none matches, the new session
is linked to the newest prior session as a delta session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := os.ReadFile(prdPath)
			if err != nil {
				return fmt.Errorf("read PRD file: %w", err)
			}

			state, err := c.Sessions.Initialize(cmd.Context(), string(content), c.Config.SessionsRoot)
			if err != nil {
				return err
			}

			if state.Metadata.IsDelta() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %s (delta of %s)\n", state.Metadata.ID, state.Metadata.ParentSession)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %s\n", state.Metadata.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prdPath, "prd", "", "Path to the PRD file (required)")
	_ = cmd.MarkFlagRequired("prd")

	return cmd
}
