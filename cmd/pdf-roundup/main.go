// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-roundup CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// envKeyReplacer maps flag-style keys such as max-size to PDF_ROUNDUP_MAX_SIZE.
var envKeyReplacer = strings.NewReplacer("-", "_")

// rootCmd is the base command for the pdf-roundup CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-roundup",
	Short: "Fetch PDFs for a spreadsheet of part numbers and package them",
	Long: `pdf-roundup reads part numbers from the first column of a CSV, XLSX,
or XLS file, asks the document API for a signed download URL for each one, downloads
every document, and packages the results as zip archives or loose files.

Failures are isolated per part number and written to the run log next to the
output. Runs can optionally be recorded in a local history database, exported
as Prometheus metrics, and published to S3 or Cloud Storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-roundup.yaml or ~/.config/pdf-roundup/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log per-identifier progress")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// loadEnvFiles loads .env and then .env.local from the working directory.
// Both are optional; .env.local overrides.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
	}
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("loading .env.local: %w", err)
		}
	}
	return nil
}

func initConfig() {
	if err := loadEnvFiles(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-roundup")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-roundup"))
		}
	}

	viper.SetEnvPrefix("PDF_ROUNDUP")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
