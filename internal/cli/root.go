// Package cli provides the command-line interface for prdflow.
// The CLI is a thin surface over the session manager; everything it does,
// the pipeline's execution layer does programmatically.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/domain"
	"github.com/runoshun/prdflow/internal/session"
)

// NewRootCommand creates the root command for prdflow.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "prdflow",
		Short: "PRD-driven backlog session store",
		Long: `prdflow persists the hierarchical backlog of a PRD-driven
development pipeline (Phase > Milestone > Task > Subtask) per session,
resumable across restarts by PRD content hash. Writes are atomic: a
reader never observes a partially written backlog.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.AddCommand(newInitCommand(c))
	root.AddCommand(newShowCommand(c))
	root.AddCommand(newStatusCommand(c))
	root.AddCommand(newDepsCommand(c))
	root.AddCommand(newPlanCommand(c))
	root.AddCommand(newSessionsCommand(c))

	return root
}

// resolveSession binds the container's manager to the session named by the
// --session flag, or to the latest session when the flag is empty.
func resolveSession(cmd *cobra.Command, c *app.Container, sessionID string) (*domain.SessionState, error) {
	var path string
	if sessionID != "" {
		path = filepath.Join(c.Config.SessionsRoot, sessionID)
	} else {
		var err error
		path, err = session.LatestSessionPath(c.Config.SessionsRoot)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
	}
	return c.Sessions.LoadSession(cmd.Context(), path)
}
