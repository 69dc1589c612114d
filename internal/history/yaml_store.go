package history

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"autodeploy/internal/security"
	"autodeploy/pkg/fileutil"
)

// yamlDocument is the on-disk layout of a YAMLStore file.
type yamlDocument struct {
	Locations map[string][]string `yaml:"locations"`
}

// YAMLStore keeps history in a single YAML file, rewritten atomically on
// every persist.
type YAMLStore struct {
	path string
}

// NewYAMLStore returns a store backed by path. The file is created on the
// first persist.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Load reads the file; a missing file is an empty history.
func (s *YAMLStore) Load(ctx context.Context) (Locations, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Locations{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}

	locations := make(Locations, len(doc.Locations))
	for name, paths := range doc.Locations {
		locations[name] = paths
	}
	return locations, nil
}

// Persist rewrites the whole file.
func (s *YAMLStore) Persist(ctx context.Context, locations Locations) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := yaml.Marshal(&yamlDocument{Locations: locations})
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, payload, security.PermConfigFile); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (s *YAMLStore) Close() error {
	return nil
}
