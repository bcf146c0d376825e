package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/async"
	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/export"
	"github.com/expenselens/receipt-engine/internal/ingest"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Process every receipt in a directory",
	Long: `Batch walks the directory for supported receipt files, processes them
with a bounded worker pool, and writes either an XLSX workbook or a JSON
array of records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		dir := args[0]

		workers, _ := cmd.Flags().GetInt("workers")
		outPath, _ := cmd.Flags().GetString("out")

		paths, err := ingest.DiscoverReceipts(dir)
		if err != nil {
			return fmt.Errorf("walk %s: %w", dir, err)
		}
		jobs := make([]async.Job, 0, len(paths))
		for _, p := range paths {
			jobs = append(jobs, async.Job{Path: p})
		}
		if len(jobs) == 0 {
			return fmt.Errorf("no supported receipt files under %s", dir)
		}
		logger.Info("batch.start", "dir", dir, "files", len(jobs), "workers", workers)

		ctx := context.Background()
		cfg := common.LoadConfig()
		proc, err := buildProcessor(ctx, cfg, logger)
		if err != nil {
			return err
		}

		results, err := async.RunBatch(ctx, proc, jobs, workers, logger)
		if err != nil {
			logger.Warn("batch finished with errors", "error", err)
		}

		if outPath == "" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		switch constants.NormalizeExt(filepath.Ext(outPath)) {
		case "xlsx":
			svc := export.NewService(logger)
			book, err := svc.ExportResultsXLSX(results)
			if err != nil {
				return err
			}
			return os.WriteFile(outPath, book, 0o644)
		case "json":
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		default:
			return fmt.Errorf("unsupported output format %q (use .xlsx or .json)", filepath.Ext(outPath))
		}
	},
}

func init() {
	batchCmd.Flags().Int("workers", 4, "concurrent receipts")
	batchCmd.Flags().String("out", "", "output path (.xlsx or .json); default prints JSON to stdout")
	rootCmd.AddCommand(batchCmd)
}
