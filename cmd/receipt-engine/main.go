// Package main is the entry point for the receipt-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the receipt-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "receipt-engine",
	Short: "Receipt document understanding pipeline",
	Long: `receipt-engine turns receipt photos, scans and PDFs into structured
expense records. The pipeline rectifies and binarizes the document image,
runs text recognition, extracts fields with rule-based parsing, optionally
refines the result with a vendor-specialized model pass, and recovers
low-quality parses through prioritized fallback strategies.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("receipt-engine", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./receipt-engine.yaml or ~/.config/receipt-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("receipt-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "receipt-engine"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	applyConfigFile()
}

// applyConfigFile bridges file settings into the environment the config
// loader reads. Keys mirror the environment names in lowercase, e.g.
// "quality_threshold: 0.9" sets QUALITY_THRESHOLD. Real environment
// variables win over the file.
func applyConfigFile() {
	for _, key := range viper.AllKeys() {
		name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, set := os.LookupEnv(name); set {
			continue
		}
		_ = os.Setenv(name, viper.GetString(key))
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
