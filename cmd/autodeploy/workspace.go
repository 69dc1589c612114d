package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"autodeploy/internal/history"
	"autodeploy/internal/project"
	"autodeploy/internal/security"
	"autodeploy/pkg/fileutil"
)

// workspace is everything a command needs from the configuration file.
type workspace struct {
	ConfigPath string
	Config     *project.Config
	Registry   *project.Registry
	History    *history.Manager
	store      history.Store
}

func (w *workspace) Close() error {
	if w.store != nil {
		return w.store.Close()
	}
	return nil
}

// findConfig resolves --config, then AUTODEPLOY_CONFIG_FILE, then the default
// search paths.
func findConfig() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	if path := os.Getenv("AUTODEPLOY_CONFIG_FILE"); path != "" {
		return path, nil
	}

	searchPaths := fileutil.DefaultConfigPaths(project.ConfigFileName)
	found, err := fileutil.SearchPaths(searchPaths)
	if err != nil {
		return "", fmt.Errorf("no %s found in:\n  %s\nUse --config flag to specify a custom location",
			project.ConfigFileName, strings.Join(searchPaths, "\n  "))
	}
	return found, nil
}

// openWorkspace loads the configuration and the location history it points to.
func openWorkspace(ctx context.Context, logger *slog.Logger) (*workspace, error) {
	path, err := findConfig()
	if err != nil {
		return nil, err
	}

	logger.Info("Loading configuration", "config", path)
	if info, err := os.Stat(path); err == nil && security.IsWorldWritable(info.Mode().Perm()) {
		logger.Warn("Configuration file is world-writable", "config", path, "mode", info.Mode().Perm().String())
	}
	config, projects, err := project.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("Configuration validated successfully", "count", len(projects))

	logger.Info("Opening location history",
		"backend", config.History.Backend,
		"path", config.History.Path)
	store, err := history.OpenStore(config.History.Backend, config.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open location history: %w", err)
	}

	manager, err := history.NewManager(ctx, store, config.History.MaxEntries, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &workspace{
		ConfigPath: path,
		Config:     config,
		Registry:   project.NewRegistry(projects),
		History:    manager,
		store:      store,
	}, nil
}
