package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kingrea/licensedoc/internal/artifact"
)

func newDocumentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored documents and verify their checksums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime("", nil)
			if err != nil {
				return err
			}
			defer rt.close()
			results, err := rt.store.List()
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No documents in %s\n", rt.store.Dir())
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATE\tVARIANT\tCREATED\tDETAIL")
			for _, r := range results {
				fmt.Fprintln(tw, documentRow(r))
			}
			return tw.Flush()
		},
	}
}

func documentRow(r artifact.CheckResult) string {
	variant, created, detail := "-", "-", ""
	if r.Metadata != nil {
		variant = r.Metadata.Variant
		created = r.Metadata.CreatedAt.Format("2006-01-02 15:04")
	}
	if r.Err != nil {
		detail = r.Err.Error()
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s", r.ID, r.State, variant, created, detail)
}
