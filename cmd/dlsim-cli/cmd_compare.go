package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/croissant-tools/dlsim/client"
	"github.com/croissant-tools/dlsim/internal/models"
)

// addWeightFlags registers the shared similarity parameter overrides. The
// flag names mirror the server's query parameters.
func addWeightFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("kw", 0, "Keyword weight override")
	cmd.Flags().Float64("desc", 0, "Description weight override")
	cmd.Flags().Float64("head", 0, "Headline weight override")
	cmd.Flags().Float64("th", 0, "Score threshold override")
}

// overridesFromFlags builds ParamOverrides from whichever weight flags were
// explicitly set. Zero is a meaningful weight, so presence is detected via
// Changed rather than value.
func overridesFromFlags(cmd *cobra.Command) *client.ParamOverrides {
	o := &client.ParamOverrides{}
	set := false

	if cmd.Flags().Changed("kw") {
		v, _ := cmd.Flags().GetFloat64("kw")
		o.Keywords = &v
		set = true
	}
	if cmd.Flags().Changed("desc") {
		v, _ := cmd.Flags().GetFloat64("desc")
		o.Description = &v
		set = true
	}
	if cmd.Flags().Changed("head") {
		v, _ := cmd.Flags().GetFloat64("head")
		o.Headline = &v
		set = true
	}
	if cmd.Flags().Changed("th") {
		v, _ := cmd.Flags().GetFloat64("th")
		o.Threshold = &v
		set = true
	}

	if !set {
		return nil
	}
	return o
}

func newCompareCmd() *cobra.Command {
	var idsCSV string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Score profile pairs above the threshold",
		Long: `Compare every registered profile pair (or just the pairs within --ids)
and print the matches that clear the combined score threshold, best first.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			opts := overridesFromFlags(cmd)

			var (
				res *client.BatchResult
				err error
			)
			if idsCSV != "" {
				ids := splitIDs(idsCSV)
				res, err = apiClient.Similarities.Select(ctx, ids, opts)
			} else {
				res, err = apiClient.Similarities.All(ctx, opts)
			}
			if err != nil {
				fatal("compare", err)
			}

			if flagFmt == "table" {
				printResultTable(res.Results)
				return
			}
			if flagFmt == "quiet" {
				for _, r := range res.Results {
					fmt.Printf("%s %s %s\n", r.ProfileA, r.ProfileB, formatScore(r.CombinedScore))
				}
				return
			}
			output(res, "")
		},
	}

	cmd.Flags().StringVar(&idsCSV, "ids", "", "Comma-separated profile IDs to restrict the comparison to")
	addWeightFlags(cmd)
	return cmd
}

func splitIDs(csv string) []string {
	parts := strings.Split(csv, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func printResultTable(results []models.SimilarityResult) {
	headers := []string{"A", "B", "KEYWORD", "DESCRIPTION", "HEADLINE", "COMBINED"}
	var rows [][]string
	for _, r := range results {
		rows = append(rows, []string{
			r.ProfileA, r.ProfileB,
			formatScore(r.KeywordScore),
			formatScore(r.DescriptionScore),
			formatScore(r.HeadlineScore),
			formatScore(r.CombinedScore),
		})
	}
	formatTable(headers, rows)
}

func newPairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair <a> <b>",
		Short: "Score a single profile pair",
		Long: `Score one pair regardless of the threshold. The result carries a
passes_threshold flag instead of being filtered out.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			res, err := apiClient.Similarities.Pair(context.Background(), args[0], args[1], overridesFromFlags(cmd))
			if err != nil {
				fatal("pair", err)
			}
			if flagFmt == "table" {
				printResultTable([]models.SimilarityResult{res.Result})
				return
			}
			output(res, formatScore(res.Result.CombinedScore))
		},
	}
	addWeightFlags(cmd)
	return cmd
}
