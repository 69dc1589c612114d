package project

// Project is a validated, fully resolved workspace project.
type Project struct {
	Name       string
	Path       string // absolute project directory
	OutputPath string // absolute build output directory, inside Path
	Target     string // suggested target name, may be empty
}

// ProjectConfig represents the YAML configuration for a project
type ProjectConfig struct {
	Path   string `yaml:"path"`
	Output string `yaml:"output"`
	Target string `yaml:"target"`
}

// TargetConfig is the workspace-level target that inherited targets reuse.
type TargetConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// HistoryConfig selects and bounds the location history store.
type HistoryConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// Config represents the root configuration structure
type Config struct {
	BasePath      string                   `yaml:"base_path"`
	DefaultTarget *TargetConfig            `yaml:"default_target"`
	History       HistoryConfig            `yaml:"history"`
	Projects      map[string]ProjectConfig `yaml:"projects"`
}
