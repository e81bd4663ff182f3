package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// inspect needs no database, so it does not load the service configuration.
func newInspectCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show how a CSV export would be read, without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := openInput(path, 0)
			if err != nil {
				return err
			}
			defer f.Close()

			start := time.Now()
			report, err := core.Inspect(f, rows, time.Now)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), commandOutput{
				Command:    "inspect",
				File:       path,
				DurationMS: time.Since(start).Milliseconds(),
				Result:     report,
			})
		},
	}

	cmd.Flags().IntVar(&rows, "rows", core.DefaultInspectRows, "Data rows to normalize")
	return cmd
}
