package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/licensedoc/internal/logbook"
	"github.com/kingrea/licensedoc/internal/tui"
)

func newLogCommand() *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent generation log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			floor, err := logbook.ParseLevel(level)
			if err != nil {
				return err
			}
			rt, err := loadRuntime("", nil)
			if err != nil {
				return err
			}
			defer rt.close()
			entries := rt.log.Entries(lines, floor)
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No entries in %s\n", rt.log.Path())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderLog(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of log lines to read")
	cmd.Flags().StringVar(&level, "level", "info", "minimum level: info, warn or error")
	return cmd
}
