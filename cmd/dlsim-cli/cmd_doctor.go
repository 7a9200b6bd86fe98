package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/croissant-tools/dlsim/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, and the embedding backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\ndlsim Doctor")
	fmt.Println("============")

	var results []checkResult

	// 1. Config file. Missing is fine, the CLI runs on defaults.
	cfgPath, cfg, cfgErr := doctorLoadConfig()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: "not found (defaults in effect)",
			Hint:   "Run: dlsim init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	// 2. Server URL (same priority as resolveConfig: flag, env, config).
	url := doctorResolveURL(cfg)
	results = append(results, checkResult{
		Name: "Server URL", Passed: true, Detail: url,
	})

	// 3. Server reachable.
	health, err := doctorCheckHealth(url)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false,
			Detail: url,
			Hint:   fmt.Sprintf("Is the dlsim server running?\n   Error: %v", err),
		})
	} else {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: true,
			Detail: fmt.Sprintf("v%s, %d profiles", health.Version, health.Profiles),
		})
	}

	// 4. Readiness (embedding backend probe).
	if err == nil {
		if readyErr := doctorCheckReady(url); readyErr != nil {
			results = append(results, checkResult{
				Name: "Embedding backend", Passed: false,
				Hint: fmt.Sprintf("Check the embedding service. Error: %v", readyErr),
			})
		} else {
			results = append(results, checkResult{
				Name: "Embedding backend", Passed: true,
				Detail: health.Embeddings,
			})
		}
	}

	// Print results.
	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.Passed {
			if r.Detail != "" {
				fmt.Printf("✅ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("✅ %s\n", r.Name)
			}
			if r.Hint != "" {
				fmt.Printf("   Hint: %s\n", r.Hint)
			}
		} else {
			allPassed = false
			if r.Detail != "" {
				fmt.Printf("❌ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("❌ %s\n", r.Name)
			}
			if r.Hint != "" {
				fmt.Printf("   Hint: %s\n", r.Hint)
			}
		}
	}

	fmt.Println()
	if allPassed {
		fmt.Println("✅ All checks passed!")
	} else {
		fmt.Println("❌ Some checks failed.")
		return fmt.Errorf("doctor found issues")
	}

	return nil
}

func doctorLoadConfig() (string, *configFile, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", nil, err
	}
	cfg, err := loadConfigFile()
	if err != nil {
		return cfgPath, nil, err
	}
	return cfgPath, cfg, nil
}

func doctorResolveURL(cfg *configFile) string {
	url := flagURL

	if url != defaultServerURL {
		return url
	}

	if flagServer != "" && cfg != nil {
		if u := cfg.serverURL(flagServer); u != "" {
			return u
		}
	}

	if v := os.Getenv("DLSIM_URL"); v != "" {
		return v
	}

	if cfg != nil {
		if u := cfg.serverURL(""); u != "" {
			return u
		}
	}

	return url
}

func doctorCheckHealth(url string) (*client.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.New(url).Health(ctx)
}

func doctorCheckReady(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ready, err := client.New(url).Ready(ctx)
	if err != nil {
		return err
	}
	if ready.Status != "ready" {
		return fmt.Errorf("server reports %q", ready.Status)
	}
	return nil
}
