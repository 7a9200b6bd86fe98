package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestRoot builds a root command tree identical to main() but with
// PersistentPreRun stubbed out so the API client is never initialised.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "dlsim",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client initialisation in tests.
		},
	}
	root.PersistentFlags().StringVar(&flagURL, "url", defaultServerURL, "")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "")

	root.AddCommand(newProfilesCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newPairCmd())
	root.AddCommand(newRefineCmd())
	root.AddCommand(newJobsCmd())
	return root
}

// --- pair / refine ---

func TestPairArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"pair"}},
		{"one arg", []string{"pair", "city-a"}},
		{"three args", []string{"pair", "a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestRoot()
			if err := executeArgs(t, root, tc.args...); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestRefineArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"refine"}},
		{"one arg", []string{"refine", "city-a"}},
		{"three args", []string{"refine", "a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestRoot()
			if err := executeArgs(t, root, tc.args...); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

// --- profiles ---

func TestProfilesLoadRequiresPath(t *testing.T) {
	root := newTestRoot()
	if err := executeArgs(t, root, "profiles", "load"); err == nil {
		t.Error("profiles load without a path should fail")
	}
}

func TestProfilesExactArgs1Commands(t *testing.T) {
	argsValidator := cobra.ExactArgs(1)
	for _, sub := range []string{"show", "rm"} {
		t.Run(sub, func(t *testing.T) {
			if err := argsValidator(nil, []string{"profile-id"}); err != nil {
				t.Errorf("%s: one arg should be accepted: %v", sub, err)
			}
			if err := argsValidator(nil, []string{}); err == nil {
				t.Errorf("%s: zero args should be rejected", sub)
			}
			if err := argsValidator(nil, []string{"a", "b"}); err == nil {
				t.Errorf("%s: two args should be rejected", sub)
			}
		})
	}
}

// --- jobs ---

func TestJobsStartRefineArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"jobs", "start", "refine"}},
		{"one arg", []string{"jobs", "start", "refine", "city-a"}},
		{"three args", []string{"jobs", "start", "refine", "a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestRoot()
			if err := executeArgs(t, root, tc.args...); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestJobsIDCommands(t *testing.T) {
	argsValidator := cobra.ExactArgs(1)
	for _, sub := range []string{"status", "result", "download", "cancel", "watch"} {
		t.Run(sub, func(t *testing.T) {
			if err := argsValidator(nil, []string{"job-id"}); err != nil {
				t.Errorf("%s: one arg should be accepted: %v", sub, err)
			}
			if err := argsValidator(nil, []string{}); err == nil {
				t.Errorf("%s: zero args should be rejected", sub)
			}
		})
	}
}

func TestJobsWatchIntervalDefault(t *testing.T) {
	cmd := jobsWatchCmd()
	f := cmd.Flags().Lookup("interval")
	if f == nil {
		t.Fatal("--interval flag not found on jobs watch")
	}
	if f.DefValue != "2s" {
		t.Errorf("default interval: got %q, want %q", f.DefValue, "2s")
	}
}

func TestJobsDownloadOutDefault(t *testing.T) {
	cmd := jobsDownloadCmd()
	f := cmd.Flags().Lookup("out")
	if f == nil {
		t.Fatal("--out flag not found on jobs download")
	}
	if f.DefValue != "." {
		t.Errorf("default out: got %q, want %q", f.DefValue, ".")
	}
}

// --- compare flags ---

func TestCompareFlagDefaults(t *testing.T) {
	cmd := newCompareCmd()

	cases := []struct {
		flag string
		want string
	}{
		{"ids", ""},
		{"kw", "0"},
		{"desc", "0"},
		{"head", "0"},
		{"th", "0"},
	}
	for _, tc := range cases {
		f := cmd.Flags().Lookup(tc.flag)
		if f == nil {
			t.Errorf("--%s flag not found", tc.flag)
			continue
		}
		if f.DefValue != tc.want {
			t.Errorf("--%s default: got %q, want %q", tc.flag, f.DefValue, tc.want)
		}
	}
}

// TestOverridesFromFlags verifies that only explicitly set weight flags end
// up in the overrides, and that no flags means no overrides at all.
func TestOverridesFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addWeightFlags(cmd)
	if err := cmd.ParseFlags([]string{"--th", "0.8", "--kw", "0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	o := overridesFromFlags(cmd)
	if o == nil {
		t.Fatal("expected overrides, got nil")
	}
	if o.Threshold == nil || *o.Threshold != 0.8 {
		t.Errorf("threshold: got %v, want 0.8", o.Threshold)
	}
	if o.Keywords == nil || *o.Keywords != 0 {
		t.Error("an explicit zero weight must be carried")
	}
	if o.Description != nil || o.Headline != nil {
		t.Error("unset flags must stay nil")
	}
}

func TestOverridesFromFlagsEmpty(t *testing.T) {
	cmd := &cobra.Command{}
	addWeightFlags(cmd)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if o := overridesFromFlags(cmd); o != nil {
		t.Errorf("expected nil overrides when no flags set, got %+v", o)
	}
}

// --- global flags ---

func TestFormatFlagDefault(t *testing.T) {
	root := newTestRoot()
	f := root.PersistentFlags().Lookup("format")
	if f == nil {
		t.Fatal("--format flag not found")
	}
	if f.DefValue != "json" {
		t.Errorf("default format: got %q, want %q", f.DefValue, "json")
	}
}

func TestURLFlagDefault(t *testing.T) {
	root := newTestRoot()
	f := root.PersistentFlags().Lookup("url")
	if f == nil {
		t.Fatal("--url flag not found")
	}
	if f.DefValue != defaultServerURL {
		t.Errorf("default url: got %q, want %q", f.DefValue, defaultServerURL)
	}
}

// --- helpers ---

func TestSplitIDs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{"solo", []string{"solo"}},
	}
	for _, tc := range cases {
		got := splitIDs(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitIDs(%q): got %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitIDs(%q)[%d]: got %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestCollectJSONFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.json", "a.JSON", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sub, "c.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := collectJSONFiles([]string{dir})
	if err != nil {
		t.Fatalf("collectJSONFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 json files, got %d: %v", len(files), files)
	}
	// Sorted order, .JSON matched case-insensitively, .txt skipped.
	if filepath.Base(files[0]) != "a.JSON" {
		t.Errorf("first file: got %s, want a.JSON", files[0])
	}
	if filepath.Base(files[2]) != "c.json" {
		t.Errorf("nested file missing: %v", files)
	}
}

func TestCollectJSONFilesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.txt")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	// An explicitly named file is taken as-is regardless of extension.
	files, err := collectJSONFiles([]string{path})
	if err != nil {
		t.Fatalf("collectJSONFiles: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("got %v, want [%s]", files, path)
	}
}

func TestCollectJSONFilesMissingPath(t *testing.T) {
	if _, err := collectJSONFiles([]string{"/does/not/exist"}); err == nil {
		t.Error("expected error for missing path")
	}
}
