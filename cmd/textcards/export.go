package main

import (
	"context"
	"fmt"
	"time"

	"textcards/internal/card"
	"textcards/internal/config"
	"textcards/internal/export"
	"textcards/internal/logger"

	"github.com/spf13/cobra"
)

var (
	exportStyle  styleFlags
	exportOutDir string
	exportName   string
)

var exportCmd = &cobra.Command{
	Use:   "export <workbook>",
	Short: "Export every card as a PNG inside one zip archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	addStyleFlags(exportCmd, &exportStyle)
	exportCmd.Flags().StringVarP(&exportOutDir, "output", "o", "", "output directory (default from config)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "archive file name (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	exportStyle.apply(cmd.Flags(), cfg)
	if exportOutDir != "" {
		cfg.Export.OutputDirectory = exportOutDir
	}
	if exportName != "" {
		cfg.Export.ArchiveName = exportName
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	cards, err := renderCards(s, cfg)
	if err != nil {
		return err
	}

	pipeline := newPipeline(cfg)
	fmt.Printf("Exporting %d cards...\n", len(cards))
	path, err := exportCards(ctx, pipeline, cards, cfg)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println("No rows to export.")
		return nil
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}

func newPipeline(c *config.Config) *export.Pipeline {
	p := export.NewPipeline(card.NewRenderer())
	p.Concurrency = c.Export.Concurrency
	p.FaultBudget = c.Export.FaultBudget
	return p
}

// exportCards runs one export and saves the archive. It returns an empty path
// when there was nothing to export.
func exportCards(ctx context.Context, p *export.Pipeline, cards []card.Card, c *config.Config) (string, error) {
	start := time.Now()
	result, err := p.Run(ctx, cards)
	if err != nil {
		logger.Error("Export failed", "error", err)
		return "", fmt.Errorf("export failed: %w", err)
	}
	for _, fault := range result.Faults {
		fmt.Printf("Warning: %v\n", fault)
	}

	path, err := result.Save(c.Export.OutputDirectory, c.Export.ArchiveName)
	if err != nil {
		return "", err
	}
	logger.Debug("Export finished", "entries", result.Entries, "elapsed", time.Since(start))
	return path, nil
}
