package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the similarity report",
		Long: `Build the JSON-LD similarity report over all registered profiles.
Without --out the document is printed; with --out the server-rendered
file is saved (a directory keeps the timestamped server filename).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := overridesFromFlags(cmd)

			if outPath != "" {
				data, filename, err := apiClient.Reports.Download(ctx, opts)
				if err != nil {
					return fmt.Errorf("download report: %w", err)
				}
				return saveDownload(outPath, filename, data)
			}

			doc, err := apiClient.Reports.Get(ctx, opts)
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}
			output(doc, doc.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Save the rendered report file (use - for stdout, a directory keeps the server filename)")
	addWeightFlags(cmd)
	return cmd
}
