package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kingrea/licensedoc/internal/artifact"
	"github.com/kingrea/licensedoc/internal/input"
	"github.com/kingrea/licensedoc/internal/report"
	"github.com/kingrea/licensedoc/internal/tui"
)

type generateOptions struct {
	variant   string
	input     string
	directory string
	out       string
	progress  bool
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a disclosure or clearing report from an input bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.variant, "variant", "", "document variant: disclosure or report (defaults to the bundle's variant)")
	flags.StringVar(&opts.input, "input", "", "YAML or JSON input bundle")
	flags.StringVar(&opts.directory, "directory", "", "YAML file with users and the license catalog (overrides config)")
	flags.StringVar(&opts.out, "out", "", "write the document here instead of the document store")
	flags.BoolVar(&opts.progress, "progress", false, "show pipeline progress")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	rt, err := loadRuntime(opts.directory, nil)
	if err != nil {
		return err
	}
	defer rt.close()
	bundle, err := input.Load(opts.input)
	if err != nil {
		return err
	}
	name, err := pickVariant(opts.variant, bundle.Variant)
	if err != nil {
		return err
	}
	variant, err := rt.variant(name)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	id := artifact.DocumentID(bundle.Project.Name, bundle.Project.Version, variant.Name())
	log := rt.log.Scope(runID[:8])
	log.Info("generate %s from %s", id, opts.input)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		data  []byte
		steps int
	)
	if opts.progress {
		done, err := tui.Run(ctx, id, cmd.ErrOrStderr(), func(step func(string)) error {
			var genErr error
			data, genErr = rt.generator(log, report.WithProgress(step)).Generate(ctx, variant, bundle.Request())
			return genErr
		})
		steps = len(done)
		if err != nil {
			log.Error("generate %s: %v", id, err)
			return err
		}
	} else {
		data, err = rt.generator(log, report.WithProgress(func(string) { steps++ })).Generate(ctx, variant, bundle.Request())
		if err != nil {
			log.Error("generate %s: %v", id, err)
			return err
		}
	}

	summary := tui.Summary{
		Document: id,
		Variant:  variant.Name(),
		RunID:    runID,
		Bytes:    len(data),
		Steps:    steps,
	}
	if opts.out != "" {
		if err := writeOut(opts.out, data); err != nil {
			return err
		}
		summary.Path = opts.out
	} else {
		inputs := []string{opts.input}
		if dir := strings.TrimSpace(opts.directory); dir != "" {
			inputs = append(inputs, dir)
		}
		meta, err := rt.store.Write(id, data, artifact.Metadata{
			Variant: variant.Name(),
			Version: version,
			RunID:   runID,
			Inputs:  inputs,
		})
		if err != nil {
			log.Error("store %s: %v", id, err)
			return err
		}
		summary.Path = rt.store.Path(id)
		summary.Checksum = meta.Checksum
	}
	log.Info("generated %s (%d bytes) at %s", id, len(data), summary.Path)
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(summary))
	return nil
}

// pickVariant reconciles the --variant flag with the bundle's own variant.
func pickVariant(flag, fromBundle string) (string, error) {
	flag = strings.ToLower(strings.TrimSpace(flag))
	switch {
	case flag == "" && fromBundle == "":
		return "", fmt.Errorf("no variant: pass --variant or set variant in the bundle")
	case flag == "":
		return fromBundle, nil
	case fromBundle != "" && fromBundle != flag:
		return "", fmt.Errorf("--variant %s does not match bundle variant %s", flag, fromBundle)
	}
	return flag, nil
}

func writeOut(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
