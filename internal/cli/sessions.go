package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/domain"
)

// newSessionsCommand creates the sessions command.
func newSessionsCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(c.Config.SessionsRoot)
			if err != nil {
				if os.IsNotExist(err) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
					return nil
				}
				return fmt.Errorf("read sessions dir: %w", err)
			}

			type row struct {
				seq    int
				id     string
				parent string
			}
			var rows []row
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				seq, _, ok := domain.ParseSessionDirName(entry.Name())
				if !ok {
					continue
				}
				dir := filepath.Join(c.Config.SessionsRoot, entry.Name())
				parent, err := c.Store.ReadParentLink(dir)
				if err != nil {
					parent = ""
				}
				rows = append(rows, row{seq: seq, id: entry.Name(), parent: parent})
			}

			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
				return nil
			}

			sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
			for _, r := range rows {
				if r.parent != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (delta of %s)\n", r.id, r.parent)
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.id)
				}
			}
			return nil
		},
	}
}
