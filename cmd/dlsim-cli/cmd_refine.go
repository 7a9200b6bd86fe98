package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRefineCmd() *cobra.Command {
	var (
		asReport bool
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "refine <a> <b>",
		Short: "Structurally compare two profiles",
		Long: `Run the refinement pass over a profile pair: content-type breakdown,
shared columns, and per-resource sample overlap. With --report the full
report document is printed; with --out the rendered report file is saved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, b := args[0], args[1]

			if outPath != "" {
				data, filename, err := apiClient.Refine.Download(ctx, a, b)
				if err != nil {
					return fmt.Errorf("download refinement report: %w", err)
				}
				return saveDownload(outPath, filename, data)
			}

			if asReport {
				doc, err := apiClient.Refine.Report(ctx, a, b)
				if err != nil {
					return fmt.Errorf("refinement report: %w", err)
				}
				output(doc, "")
				return nil
			}

			res, err := apiClient.Refine.Compare(ctx, a, b)
			if err != nil {
				return fmt.Errorf("refine: %w", err)
			}

			if flagFmt == "table" {
				headers := []string{"COLUMN", "SAMPLES A", "SAMPLES B", "COMMON"}
				var rows [][]string
				for _, o := range res.ColumnOverlap {
					rows = append(rows, []string{
						o.Column,
						fmt.Sprintf("%d", len(o.SamplesA)),
						fmt.Sprintf("%d", len(o.SamplesB)),
						fmt.Sprintf("%d", len(o.CommonSamples)),
					})
				}
				formatTable(headers, rows)
				fmt.Fprintln(os.Stderr, res.Summary)
				return nil
			}
			output(res, res.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asReport, "report", false, "Print the full report document")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Save the rendered report file (use - for stdout, a directory keeps the server filename)")
	return cmd
}

// saveDownload writes a server-rendered attachment. "-" streams to stdout;
// a directory path keeps the server-suggested filename.
func saveDownload(outPath, filename string, data []byte) error {
	if outPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		if filename == "" {
			return fmt.Errorf("server did not suggest a filename; pass a full path")
		}
		outPath = filepath.Join(outPath, filename)
	}

	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	fmt.Fprintf(os.Stderr, "Saved %s (%d bytes)\n", outPath, len(data))
	return nil
}
