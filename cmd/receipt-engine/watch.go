package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/expenselens/receipt-engine/internal/async"
	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Watch directories and process receipts as they appear",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		workers, _ := cmd.Flags().GetInt("workers")
		initialScan, _ := cmd.Flags().GetBool("initial-scan")
		debounceMS, _ := cmd.Flags().GetInt("debounce-ms")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := common.LoadConfig()
		proc, err := buildProcessor(ctx, cfg, logger)
		if err != nil {
			return err
		}

		queue := async.NewProcessorQueue(proc, logger, async.WithWorkers(workers))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(shutdownCtx)
		}()

		evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       args,
			InitialScan: initialScan,
			Debounce:    time.Duration(debounceMS) * time.Millisecond,
		}, logger)
		if err != nil {
			return err
		}

		logger.Info("watching for receipts", "roots", args, "workers", workers)
		for {
			select {
			case <-ctx.Done():
				return nil
			case path, ok := <-evCh:
				if !ok {
					return nil
				}
				_ = queue.Enqueue(ctx, async.Job{Path: path})
			case werr, ok := <-errCh:
				if ok && werr != nil {
					logger.Warn("watch error", "error", werr)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().Int("workers", 4, "concurrent receipts")
	watchCmd.Flags().Bool("initial-scan", true, "process files already present at startup")
	watchCmd.Flags().Int("debounce-ms", 500, "coalesce rapid file events")
	rootCmd.AddCommand(watchCmd)
}
