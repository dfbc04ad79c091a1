// Package main is the entry point for the prdflow CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/prdflow/internal/app"
	"github.com/runoshun/prdflow/internal/cli"
	"github.com/runoshun/prdflow/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		// Allow no-args/help/version to work without a git repository
		if errors.Is(err, domain.ErrNotGitRepository) && canRunWithoutGit(os.Args[1:]) {
			return cli.NewRootCommand(nil, version).Execute()
		}
		return err
	}

	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.Execute()
}

func canRunWithoutGit(args []string) bool {
	if len(args) == 0 {
		return true
	}
	if args[0] == "help" {
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
