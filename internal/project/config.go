package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"autodeploy/internal/history"
	"autodeploy/internal/security"
	"autodeploy/pkg/fileutil"
)

const (
	// ConfigFileName is the workspace file searched by the CLI.
	ConfigFileName = "autodeploy.yaml"

	DefaultOutput         = "bin"
	DefaultHistoryBackend = history.BackendYAML
	DefaultHistoryPath    = ".autodeploy/history.yaml"
	DefaultSQLiteHistory  = ".autodeploy/history.db"
)

// LoadConfig loads and validates the workspace configuration from a YAML file.
// Relative paths in the file are resolved against base_path, which itself
// defaults to the directory holding the config file.
func LoadConfig(configPath string) (*Config, map[string]*Project, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Initialize Projects map if it's nil (happens with empty YAML files)
	if config.Projects == nil {
		config.Projects = make(map[string]ProjectConfig)
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	applyDefaults(&config, filepath.Dir(absConfig))

	if errors := ValidateConfig(&config); len(errors) > 0 {
		return nil, nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(errors, "\n"))
	}

	projects := make(map[string]*Project)
	for name, projectConfig := range config.Projects {
		errors := ValidateProjectConfig(name, projectConfig, config.BasePath)
		if len(errors) > 0 {
			return nil, nil, fmt.Errorf("invalid configuration for project '%s':\n%s",
				name, strings.Join(errors, "\n"))
		}

		projectPath := resolveAgainst(config.BasePath, projectConfig.Path)
		projects[name] = &Project{
			Name:       name,
			Path:       projectPath,
			OutputPath: resolveAgainst(projectPath, projectConfig.Output),
			Target:     projectConfig.Target,
		}
	}

	return &config, projects, nil
}

// applyDefaults fills in base path, history settings and project outputs.
func applyDefaults(config *Config, configDir string) {
	if config.BasePath == "" {
		config.BasePath = configDir
	} else if !filepath.IsAbs(config.BasePath) {
		config.BasePath = filepath.Join(configDir, config.BasePath)
	}
	config.BasePath = filepath.Clean(config.BasePath)

	if config.History.Backend == "" {
		config.History.Backend = DefaultHistoryBackend
	}
	if config.History.Path == "" {
		config.History.Path = DefaultHistoryPath
		if config.History.Backend == history.BackendSQLite {
			config.History.Path = DefaultSQLiteHistory
		}
	}
	config.History.Path = resolveAgainst(config.BasePath, config.History.Path)
	if config.History.MaxEntries == 0 {
		config.History.MaxEntries = history.DefaultMaxEntries
	}

	for name, projectConfig := range config.Projects {
		if projectConfig.Output == "" {
			projectConfig.Output = DefaultOutput
			config.Projects[name] = projectConfig
		}
	}
}

// ValidateConfig validates the workspace-level settings.
func ValidateConfig(config *Config) []string {
	var errors []string

	if !fileutil.DirExists(config.BasePath) {
		errors = append(errors, fmt.Sprintf("  - base_path does not exist or is not a directory: '%s'", config.BasePath))
	}

	switch config.History.Backend {
	case history.BackendYAML, history.BackendSQLite:
	default:
		errors = append(errors, fmt.Sprintf("  - history.backend must be '%s' or '%s', got '%s'",
			history.BackendYAML, history.BackendSQLite, config.History.Backend))
	}

	if config.History.MaxEntries < 0 {
		errors = append(errors, fmt.Sprintf("  - history.max_entries must be a positive integer, got %d", config.History.MaxEntries))
	}

	if t := config.DefaultTarget; t != nil {
		if err := security.ValidateName(t.Name); err != nil {
			errors = append(errors, fmt.Sprintf("  - default_target: invalid name '%s': %v", t.Name, err))
		}
		if strings.TrimSpace(t.Path) == "" {
			errors = append(errors, "  - default_target: missing required 'path' field")
		}
	}

	return errors
}

// ValidateProjectConfig validates a single project configuration
func ValidateProjectConfig(name string, config ProjectConfig, basePath string) []string {
	var errors []string

	if err := security.ValidateName(name); err != nil {
		errors = append(errors, fmt.Sprintf("  - Project '%s': invalid name: %v", name, err))
	}

	// Validate path
	if config.Path == "" {
		errors = append(errors, fmt.Sprintf("  - Project '%s': missing required 'path' field", name))
	} else {
		projectPath := resolveAgainst(basePath, config.Path)
		info, err := os.Stat(projectPath)
		if err != nil {
			if os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("  - Project '%s': path does not exist: '%s'", name, projectPath))
			} else {
				errors = append(errors, fmt.Sprintf("  - Project '%s': cannot stat path '%s': %v", name, projectPath, err))
			}
		} else if !info.IsDir() {
			errors = append(errors, fmt.Sprintf("  - Project '%s': path is not a directory: '%s'", name, projectPath))
		}

		// Output must stay inside the project; it may not exist before the first build
		output := config.Output
		if output == "" {
			output = DefaultOutput
		}
		if filepath.IsAbs(output) {
			errors = append(errors, fmt.Sprintf("  - Project '%s': output must be relative to the project path, got '%s'", name, output))
		} else if _, err := security.ContainedPath(projectPath, filepath.Join(projectPath, output)); err != nil {
			errors = append(errors, fmt.Sprintf("  - Project '%s': output '%s' escapes the project directory", name, output))
		}
	}

	if config.Target != "" {
		if err := security.ValidateName(config.Target); err != nil {
			errors = append(errors, fmt.Sprintf("  - Project '%s': invalid target name '%s': %v", name, config.Target, err))
		}
	}

	return errors
}

func resolveAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
