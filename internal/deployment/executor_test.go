package deployment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"autodeploy/internal/project"
)

func writeOutput(t *testing.T, root string, files map[string]string) *project.Project {
	t.Helper()
	output := filepath.Join(root, "api", "bin")
	for name, content := range files {
		path := filepath.Join(output, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return &project.Project{Name: "api", Path: filepath.Join(root, "api"), OutputPath: output}
}

func TestExecutor_CopyOutput(t *testing.T) {
	root := t.TempDir()
	proj := writeOutput(t, root, map[string]string{
		"api.dll":        "binary",
		"config/app.yml": "port: 80",
	})
	dest := filepath.Join(root, "out", "staging")

	result, err := NewExecutor().CopyOutput(context.Background(), proj, dest)
	if err != nil {
		t.Fatalf("CopyOutput() error = %v", err)
	}

	if result.Files != 2 {
		t.Errorf("Files = %d, want 2", result.Files)
	}
	if result.Destination != dest {
		t.Errorf("Destination = %q, want %q", result.Destination, dest)
	}

	data, err := os.ReadFile(filepath.Join(dest, "config", "app.yml"))
	if err != nil {
		t.Fatalf("Failed to read copied file: %v", err)
	}
	if string(data) != "port: 80" {
		t.Errorf("Copied content = %q", data)
	}
}

func TestExecutor_CopyOutput_MergesExisting(t *testing.T) {
	root := t.TempDir()
	proj := writeOutput(t, root, map[string]string{"api.dll": "v2"})
	dest := filepath.Join(root, "out")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatalf("Failed to create destination: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dest, "keep.txt"), []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to write existing file: %v", err)
	}

	if _, err := NewExecutor().CopyOutput(context.Background(), proj, dest); err != nil {
		t.Fatalf("CopyOutput() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "keep.txt")); err != nil {
		t.Errorf("Existing file should survive the copy: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dest, "api.dll"))
	if string(data) != "v2" {
		t.Errorf("api.dll = %q, want v2", data)
	}
}

func TestExecutor_CopyOutput_Rejects(t *testing.T) {
	root := t.TempDir()
	proj := writeOutput(t, root, map[string]string{"api.dll": "x"})

	testCases := []struct {
		name string
		proj *project.Project
		dest string
	}{
		{"relative destination", proj, "out/staging"},
		{"traversal", proj, root + "/out/../../etc"},
		{"inside output", proj, filepath.Join(proj.OutputPath, "nested")},
		{"missing output", &project.Project{Name: "web", OutputPath: filepath.Join(root, "web", "bin")}, filepath.Join(root, "out")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewExecutor().CopyOutput(context.Background(), tc.proj, tc.dest); err == nil {
				t.Errorf("CopyOutput(%q) should fail", tc.dest)
			}
		})
	}
}

func TestExecutor_CopyOutput_Cancelled(t *testing.T) {
	root := t.TempDir()
	proj := writeOutput(t, root, map[string]string{"api.dll": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor().CopyOutput(ctx, proj, filepath.Join(root, "out")); err == nil {
		t.Error("CopyOutput() should fail with a cancelled context")
	}
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Error("Nothing should be created for a cancelled copy")
	}
}
