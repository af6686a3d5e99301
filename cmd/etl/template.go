package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
)

func (c *cli) newTemplateCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template with the restaurant columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return core.WriteTemplate(c.out, format)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := core.WriteTemplate(f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			okStyle.Fprintf(c.out, "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "template format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
