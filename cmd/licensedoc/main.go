// cmd/licensedoc/main.go
//
// Entry point for the licensedoc CLI. Every command works on a project
// directory (the cwd by default) whose .licensedoc/ folder carries the
// config, the generation log and the document store.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// version is stamped into stored document metadata. Release builds set it
// with -ldflags "-X main.version=...".
var version = "dev"

var projectDir string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "licensedoc",
		Short:         "Populate license disclosure and clearing report templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&projectDir, "project-dir", "", "project directory (defaults to cwd)")

	root.AddCommand(
		newInitCommand(),
		newGenerateCommand(),
		newServeCommand(),
		newTemplateCommand(),
		newDocumentsCommand(),
		newLogCommand(),
	)
	return root
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .licensedoc directory with a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveProjectDir()
			if err != nil {
				return err
			}
			if err := initProject(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", filepath.Join(dir, ".licensedoc"))
			return nil
		},
	}
}

func resolveProjectDir() (string, error) {
	dir := projectDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}
