// Package git provides repository discovery. The pipeline keeps its data
// directory at the repository root, so locating the root is the one git
// operation this tool needs.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	"github.com/runoshun/prdflow/internal/domain"
)

// Client resolves paths within a git repository.
type Client struct {
	repoRoot string
}

// NewClient creates a new git client by detecting the repository root from
// the given directory, walking up through parent directories.
func NewClient(dir string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, domain.ErrNotGitRepository
		}
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}
	return &Client{repoRoot: wt.Filesystem.Root()}, nil
}

// RepoRoot returns the repository root directory.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}
