package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/accessimport/internal/application"
	"github.com/JonMunkholm/accessimport/internal/core"
)

func newImportCmd() *cobra.Command {
	var (
		batchSize      int
		maxErrors      int
		skipDuplicates bool
		noValidate     bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV export into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Import.BatchSize = batchSize
			}
			if cmd.Flags().Changed("max-errors") {
				cfg.Import.MaxErrors = maxErrors
			}
			if cmd.Flags().Changed("skip-duplicates") {
				cfg.Import.SkipDuplicates = skipDuplicates
			}
			if noValidate {
				cfg.Import.ValidateData = false
			}

			f, err := openInput(path, cfg.Import.MaxFileSize)
			if err != nil {
				return err
			}
			defer f.Close()

			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			start := time.Now()
			result, err := app.Service.Import(cmd.Context(), core.ImportRequest{FilePath: path, Content: f})
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), commandOutput{
				Command:    "import",
				File:       path,
				DurationMS: time.Since(start).Milliseconds(),
				Result:     result,
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", core.DefaultBatchSize, "Records per transaction")
	cmd.Flags().IntVar(&maxErrors, "max-errors", core.DefaultMaxErrors, "Stop after this many failed records")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "Skip records already seen in earlier imports")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip record validation")
	return cmd
}

// openInput opens path after checking it is a regular file within maxSize.
func openInput(path string, maxSize int64) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", core.ErrFileTooLarge, path, info.Size(), maxSize)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyFile, path)
	}
	return os.Open(path)
}
