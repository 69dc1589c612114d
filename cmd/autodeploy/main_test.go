package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseLogLevel(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDeploySelection(t *testing.T) {
	t.Cleanup(func() { deployActive = "" })

	t.Setenv("AUTODEPLOY_SELECTED", `api "web"`)
	t.Setenv("AUTODEPLOY_ACTIVE", "worker")

	sel, err := deploySelection(nil)
	if err != nil {
		t.Fatalf("deploySelection() error = %v", err)
	}
	if got := sel.SelectedProjects().Names(); len(got) != 2 || got[1] != "web" {
		t.Errorf("selection from env = %v", got)
	}
	if active, _ := sel.ActiveProject(); active != "worker" {
		t.Errorf("active = %q, want worker", active)
	}

	deployActive = "api"
	sel, err = deploySelection([]string{"worker"})
	if err != nil {
		t.Fatalf("deploySelection() error = %v", err)
	}
	if got := sel.SelectedProjects().Names(); len(got) != 1 || got[0] != "worker" {
		t.Errorf("arguments should win over env, got %v", got)
	}
	if active, _ := sel.ActiveProject(); active != "api" {
		t.Errorf("active = %q, want api", active)
	}
}

func TestFindConfig(t *testing.T) {
	t.Cleanup(func() { configFile = "" })

	t.Setenv("AUTODEPLOY_CONFIG_FILE", "/from/env.yaml")
	configFile = ""
	if got, _ := findConfig(); got != "/from/env.yaml" {
		t.Errorf("findConfig() = %q, want env value", got)
	}

	configFile = "/from/flag.yaml"
	if got, _ := findConfig(); got != "/from/flag.yaml" {
		t.Errorf("findConfig() = %q, want flag value", got)
	}
}

func TestDeployAndHistoryCommands(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "src", "api", "bin")
	if err := os.MkdirAll(output, 0755); err != nil {
		t.Fatalf("Failed to create output: %v", err)
	}
	if err := os.WriteFile(filepath.Join(output, "api.dll"), []byte("bin"), 0644); err != nil {
		t.Fatalf("Failed to write output: %v", err)
	}
	config := filepath.Join(root, "autodeploy.yaml")
	body := "projects:\n  api:\n    path: src/api\n"
	if err := os.WriteFile(config, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Cleanup(func() {
		configFile, deployTarget, deployPath, deployYes = "", "", "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	rootCmd.SetArgs([]string{"deploy", "api", "--config", config,
		"--target", "staging", "--path", "out/staging", "--yes"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "out", "staging", "api.dll"))
	if err != nil {
		t.Fatalf("Output was not copied: %v", err)
	}
	if string(data) != "bin" {
		t.Errorf("copied content = %q", data)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"history", "show", "staging", "--config", config})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	if !strings.Contains(buf.String(), filepath.Join(root, "out", "staging")) {
		t.Errorf("history show output = %q", buf.String())
	}
}
