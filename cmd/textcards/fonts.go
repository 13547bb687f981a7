package main

import (
	"fmt"

	"textcards/internal/fonts"

	"github.com/spf13/cobra"
)

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "List the built-in font families",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range fonts.Names() {
			family, err := fonts.Lookup(name)
			if err != nil {
				continue
			}
			bold := "synthetic bold"
			if family.HasBold() {
				bold = "bold"
			}
			marker := ""
			if name == fonts.DefaultFamily {
				marker = " (default)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s%s\n", name, bold, marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(fontsCmd)
}
