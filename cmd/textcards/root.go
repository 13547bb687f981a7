package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"textcards/internal/config"
	"textcards/internal/logger"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.toml"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "textcards",
	Short: "Render spreadsheet rows as styled text cards",
	Long:  "textcards turns every row of a workbook into a styled text card and exports the cards as PNG images in one zip archive.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetLevel(slog.LevelDebug)
		}
		if cmd.Name() == "fonts" {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
