package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/croissant-tools/dlsim/internal/models"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}
	cmd.AddCommand(jobsStartCmd())
	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsArchiveCmd())
	cmd.AddCommand(jobsStatusCmd())
	cmd.AddCommand(jobsResultCmd())
	cmd.AddCommand(jobsDownloadCmd())
	cmd.AddCommand(jobsCancelCmd())
	cmd.AddCommand(jobsWatchCmd())
	return cmd
}

func jobsStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a background job",
	}
	cmd.AddCommand(jobsStartReportCmd())
	cmd.AddCommand(jobsStartRefineCmd())
	cmd.AddCommand(jobsStartAnalysisCmd())
	return cmd
}

func jobsStartReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Start a similarity report job",
		Run: func(cmd *cobra.Command, args []string) {
			j, err := apiClient.Jobs.StartReport(context.Background(), overridesFromFlags(cmd))
			if err != nil {
				fatal("start report job", err)
			}
			output(j, j.ID)
		},
	}
	addWeightFlags(cmd)
	return cmd
}

func jobsStartRefineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refine <a> <b>",
		Short: "Start a refinement job for one pair",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			j, err := apiClient.Jobs.StartRefine(context.Background(), args[0], args[1], overridesFromFlags(cmd))
			if err != nil {
				fatal("start refine job", err)
			}
			output(j, j.ID)
		},
	}
	addWeightFlags(cmd)
	return cmd
}

func jobsStartAnalysisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Start a full analysis job (report plus refinements)",
		Run: func(cmd *cobra.Command, args []string) {
			j, err := apiClient.Jobs.StartAnalysis(context.Background(), overridesFromFlags(cmd))
			if err != nil {
				fatal("start analysis job", err)
			}
			output(j, j.ID)
		},
	}
	addWeightFlags(cmd)
	return cmd
}

func jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs known to the server",
		Run: func(cmd *cobra.Command, args []string) {
			jobs, err := apiClient.Jobs.List(context.Background())
			if err != nil {
				fatal("list jobs", err)
			}
			printJobs(jobs)
		},
	}
}

func jobsArchiveCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archived jobs from the database",
		Run: func(cmd *cobra.Command, args []string) {
			jobs, err := apiClient.Jobs.Archive(context.Background(), limit)
			if err != nil {
				fatal("list archived jobs", err)
			}
			printJobs(jobs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (server default when 0)")
	return cmd
}

func printJobs(jobs []models.Job) {
	if flagFmt == "table" {
		headers := []string{"ID", "KIND", "STATUS", "PROGRESS", "CREATED"}
		var rows [][]string
		for _, j := range jobs {
			rows = append(rows, []string{
				j.ID, string(j.Kind), string(j.Status),
				fmt.Sprintf("%d/%d", j.Processed, j.Total),
				j.CreatedAt.Local().Format(time.RFC3339),
			})
		}
		formatTable(headers, rows)
		return
	}
	if flagFmt == "quiet" {
		for _, j := range jobs {
			fmt.Println(j.ID)
		}
		return
	}
	output(jobs, "")
}

func jobsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a job's status",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			j, err := apiClient.Jobs.Get(context.Background(), args[0])
			if err != nil {
				fatal("job status", err)
			}
			output(j, string(j.Status))
		},
	}
}

func jobsResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result <id>",
		Short: "Show a finished job including its result",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			j, err := apiClient.Jobs.Result(context.Background(), args[0])
			if err != nil {
				fatal("job result", err)
			}
			output(j, string(j.Status))
		},
	}
}

func jobsDownloadCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a finished job's result as a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := apiClient.Jobs.Download(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("download job result: %w", err)
			}
			return saveDownload(outPath, filename, data)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", ".", "Output path (use - for stdout, a directory keeps the server filename)")
	return cmd
}

func jobsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or running job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Jobs.Cancel(context.Background(), args[0]); err != nil {
				fatal("cancel job", err)
			}
			fmt.Println("canceled")
		},
	}
}

func jobsWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Poll a job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			lastLine := ""
			for {
				j, err := apiClient.Jobs.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("watch job: %w", err)
				}

				line := fmt.Sprintf("%s %d/%d %s", j.Status, j.Processed, j.Total, j.Message)
				if line != lastLine {
					fmt.Fprintln(os.Stderr, line)
					lastLine = line
				}

				if j.Finished() {
					output(j, string(j.Status))
					if j.Status == models.JobFailed {
						return fmt.Errorf("job failed: %s", j.Error)
					}
					return nil
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval")
	return cmd
}
