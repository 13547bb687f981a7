package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"textcards/internal/card"
	"textcards/internal/export"
	"textcards/internal/logger"
	"textcards/internal/preview"

	"github.com/spf13/cobra"
)

var (
	previewStyle  styleFlags
	previewPlain  bool
	previewPNGDir string
)

var previewCmd = &cobra.Command{
	Use:   "preview <workbook>",
	Short: "Preview the cards for every row of a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	addStyleFlags(previewCmd, &previewStyle)
	previewCmd.Flags().BoolVar(&previewPlain, "plain", false, "print the cards instead of opening the interactive preview")
	previewCmd.Flags().StringVar(&previewPNGDir, "png-dir", "", "also write one PNG per card into this directory")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	previewStyle.apply(cmd.Flags(), cfg)

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	cards, err := renderCards(s, cfg)
	if err != nil {
		return err
	}

	if previewPNGDir != "" {
		if err := writePNGs(ctx, cards, previewPNGDir); err != nil {
			return err
		}
		fmt.Printf("Wrote %d images to %s\n", len(cards), previewPNGDir)
	}

	if previewPlain {
		fmt.Fprintln(cmd.OutOrStdout(), preview.RenderAll(cards, 0))
		return nil
	}

	pipeline := newPipeline(cfg)
	return preview.Run(ctx, cards, preview.Options{
		CardsPerPage: cfg.UI.CardsPerPage,
		Export: func(ctx context.Context) (string, error) {
			return exportCards(ctx, pipeline, cards, cfg)
		},
	})
}

// writePNGs rasterizes each card into dir using its export file name.
func writePNGs(ctx context.Context, cards []card.Card, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	r := card.NewRenderer()
	for _, c := range cards {
		img, err := r.Rasterize(ctx, c)
		if err != nil {
			return fmt.Errorf("row %d: %w", c.Index+1, err)
		}

		var buf bytes.Buffer
		if err := card.EncodePNG(&buf, img); err != nil {
			return fmt.Errorf("row %d: %w", c.Index+1, err)
		}

		path := filepath.Join(dir, export.FileName(c.Template))
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("Wrote card image", "row", c.Index, "path", path)
	}
	return nil
}
