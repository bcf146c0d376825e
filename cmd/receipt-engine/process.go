package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/common"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process one receipt and print the extracted record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		path := args[0]

		ext := filepath.Ext(path)
		if _, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]; !ok {
			return fmt.Errorf("unsupported file extension %q", ext)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		ctx := context.Background()
		cfg := common.LoadConfig()
		proc, err := buildProcessor(ctx, cfg, logger)
		if err != nil {
			return err
		}

		res, err := proc.Process(ctx, data, constants.MapExtToContentType(ext))
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}

		full, _ := cmd.Flags().GetBool("full")
		var out any = res.Data
		if full {
			out = res
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	processCmd.Flags().Bool("full", false, "print the full result with trace and quality, not just the record")
	rootCmd.AddCommand(processCmd)
}
