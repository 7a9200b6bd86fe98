package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/croissant-tools/dlsim/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultServerURL = "http://localhost:8000"

var (
	apiClient  *client.Client
	flagURL    string
	flagServer string
	flagFmt    string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("dlsim version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("dlsim version %s-dev", version)
}

// configFile is the on-disk structure of ~/.config/dlsim/config.yaml.
type configFile struct {
	// Flat format: a single server URL.
	URL string `yaml:"url,omitempty"`
	// Named servers with an active selection.
	Servers      map[string]serverConfig `yaml:"servers,omitempty"`
	ActiveServer string                  `yaml:"active_server,omitempty"`
}

type serverConfig struct {
	URL string `yaml:"url"`
}

// serverURL resolves the URL for the named server, falling back to the
// active server, then "default", then the flat url field.
func (c *configFile) serverURL(name string) string {
	if c.Servers != nil {
		if name == "" {
			name = c.ActiveServer
		}
		if name == "" {
			name = "default"
		}
		if s, ok := c.Servers[name]; ok && s.URL != "" {
			return s.URL
		}
	}
	return c.URL
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "dlsim",
		Short:   "dlsim CLI — dataset profile similarity",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultServerURL, "dlsim server URL (env: DLSIM_URL)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Named server from the config file")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newPairCmd())
	rootCmd.AddCommand(newRefineCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newJobsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills flagURL from, in order: an explicit --url, a --server
// pick from the config file, DLSIM_URL, then the config file's active server.
func resolveConfig() {
	if flagURL != defaultServerURL {
		return
	}

	if flagServer != "" {
		if cfg, err := loadConfigFile(); err == nil {
			if u := cfg.serverURL(flagServer); u != "" {
				flagURL = u
			}
		}
		return
	}

	if v := os.Getenv("DLSIM_URL"); v != "" {
		flagURL = v
		return
	}

	cfg, err := loadConfigFile()
	if err != nil {
		return
	}
	if u := cfg.serverURL(""); u != "" {
		flagURL = u
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dlsim", "config.yaml"), nil
}

func loadConfigFile() (*configFile, error) {
	cfgPath, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
