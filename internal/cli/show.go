package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/domain"
)

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the backlog tree of a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := resolveSession(cmd, c, sessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Session %s (PRD %s)\n", state.Metadata.ID, state.Metadata.Hash)
			if state.Metadata.IsDelta() {
				_, _ = fmt.Fprintf(out, "Parent: %s\n", state.Metadata.ParentSession)
			}
			printBacklog(out, state.TaskRegistry)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (default: latest)")

	return cmd
}

// printBacklog renders the backlog tree with one indented line per item.
func printBacklog(w io.Writer, b *domain.Backlog) {
	for _, p := range b.Phases {
		printItem(w, 0, p.ID, p.Status, p.Title)
		for _, m := range p.Milestones {
			printItem(w, 1, m.ID, m.Status, m.Title)
			for _, t := range m.Tasks {
				printItem(w, 2, t.ID, t.Status, t.Title)
				for _, s := range t.Subtasks {
					printItem(w, 3, s.ID, s.Status, s.Title)
					if len(s.Dependencies) > 0 {
						_, _ = fmt.Fprintf(w, "%s  depends on: %s\n", strings.Repeat("  ", 4), strings.Join(s.Dependencies, ", "))
					}
				}
			}
		}
	}
}

func printItem(w io.Writer, depth int, id string, status domain.Status, title string) {
	_, _ = fmt.Fprintf(w, "%s%s [%s] %s\n", strings.Repeat("  ", depth), id, status.Display(), title)
}
