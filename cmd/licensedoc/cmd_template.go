package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingrea/licensedoc/internal/report"
	"github.com/kingrea/licensedoc/internal/templates"
	"github.com/kingrea/licensedoc/internal/tui"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect document templates",
	}
	cmd.AddCommand(newTemplateCheckCommand())
	return cmd
}

func newTemplateCheckCommand() *cobra.Command {
	var (
		variantName string
		file        string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a template carries every token and table the variant fills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := templates.Names()
			if variantName != "" {
				names = []string{variantName}
			} else if file != "" {
				return fmt.Errorf("--file needs --variant")
			}
			failed := 0
			for _, name := range names {
				n, err := checkTemplate(cmd, name, file)
				if err != nil {
					return err
				}
				failed += n
			}
			if failed > 0 {
				return fmt.Errorf("template check: %d problem(s)", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variantName, "variant", "", "document variant: disclosure or report (defaults to both)")
	cmd.Flags().StringVar(&file, "file", "", "template file to check (defaults to the configured template)")
	return cmd
}

func checkTemplate(cmd *cobra.Command, name, file string) (int, error) {
	variant, err := report.ParseVariant(name)
	if err != nil {
		return 0, err
	}
	data, source, err := templateBytes(variant.Name(), file)
	if err != nil {
		return 0, err
	}
	problems, err := report.CheckTemplate(data, variant)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", source, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderProblems(source, problems))
	return len(problems), nil
}

// templateBytes returns the template to check and a label naming where it
// came from.
func templateBytes(name, file string) ([]byte, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, "", fmt.Errorf("read template: %w", err)
		}
		return data, file, nil
	}
	rt, err := loadRuntime("", nil)
	if err != nil {
		return nil, "", err
	}
	defer rt.close()
	data, err := rt.templates.Template(name)
	if err != nil {
		return nil, "", err
	}
	label := name + " template"
	if dir := rt.cfg.TemplatesDir(); dir != "" {
		label = fmt.Sprintf("%s template (%s)", name, dir)
	}
	return data, label, nil
}
