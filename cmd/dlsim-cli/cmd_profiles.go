package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/croissant-tools/dlsim/internal/models"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage registered dataset profiles",
	}
	cmd.AddCommand(profilesLoadCmd())
	cmd.AddCommand(profilesListCmd())
	cmd.AddCommand(profilesShowCmd())
	cmd.AddCommand(profilesRmCmd())
	return cmd
}

func profilesLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>...",
		Short: "Register dataset description files",
		Long: `Register Croissant dataset description documents with the server.
Each path may be a JSON file or a directory, which is walked for *.json
files. The batch is all-or-nothing: one malformed document rejects all.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectJSONFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .json files found under %s", strings.Join(args, ", "))
			}

			docs := make([]json.RawMessage, 0, len(files))
			for _, f := range files {
				raw, err := os.ReadFile(f)
				if err != nil {
					return fmt.Errorf("reading %s: %w", f, err)
				}
				if !json.Valid(raw) {
					return fmt.Errorf("%s is not valid JSON", f)
				}
				docs = append(docs, json.RawMessage(raw))
			}

			res, err := apiClient.Profiles.Register(cmd.Context(), docs)
			if err != nil {
				return fmt.Errorf("register profiles: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Registered %d profiles (%d created, %d replaced)\n",
				len(res.Profiles), res.Created, res.Replaced)

			switch flagFmt {
			case "table":
				printProfileTable(res.Profiles)
			case "quiet":
				for _, p := range res.Profiles {
					fmt.Println(p.ID)
				}
			default:
				formatJSON(res)
			}
			return nil
		},
	}
}

// collectJSONFiles expands the given paths: files are taken as-is,
// directories are walked for *.json entries. The result is sorted so
// registration order is stable.
func collectJSONFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func profilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered profiles",
		Run: func(cmd *cobra.Command, args []string) {
			profiles, err := apiClient.Profiles.List(context.Background())
			if err != nil {
				fatal("list profiles", err)
			}
			if flagFmt == "table" {
				printProfileTable(profiles)
				return
			}
			if flagFmt == "quiet" {
				for _, p := range profiles {
					fmt.Println(p.ID)
				}
				return
			}
			output(profiles, "")
		},
	}
}

func printProfileTable(profiles []models.ProfileSummary) {
	headers := []string{"ID", "NAME", "KEYWORDS", "RESOURCES", "HEADLINE", "DESCRIPTION"}
	var rows [][]string
	for _, p := range profiles {
		rows = append(rows, []string{
			p.ID, p.Name,
			fmt.Sprintf("%d", p.Keywords),
			fmt.Sprintf("%d", p.Resources),
			yesNo(p.HasHeadline),
			yesNo(p.HasDescription),
		})
	}
	formatTable(headers, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func profilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a profile by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Profiles.Get(context.Background(), args[0])
			if err != nil {
				fatal("show profile", err)
			}
			output(p, p.ID)
		},
	}
}

func profilesRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a profile",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Profiles.Delete(context.Background(), args[0]); err != nil {
				fatal("remove profile", err)
			}
			fmt.Println("removed")
		},
	}
}
