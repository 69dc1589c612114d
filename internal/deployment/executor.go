package deployment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/otiai10/copy"

	"autodeploy/internal/project"
	"autodeploy/internal/security"
	"autodeploy/pkg/fileutil"
)

// CopyResult describes one finished output copy.
type CopyResult struct {
	Project     string
	Source      string
	Destination string
	Files       int64
	Duration    time.Duration
}

// Executor copies a project's build output to a resolved target location.
type Executor struct {
	// Sync flushes every copied file to disk before moving on.
	Sync bool
}

// NewExecutor creates a new executor
func NewExecutor() *Executor {
	return &Executor{}
}

// CopyOutput copies proj.OutputPath into destination, merging with whatever
// is already there. Symlinks are recreated, not followed. The copy stops at
// the next file once ctx is done.
func (e *Executor) CopyOutput(ctx context.Context, proj *project.Project, destination string) (*CopyResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("copy cancelled before start: %w", err)
	}

	destination, err := security.SanitizePath(destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}
	if !fileutil.DirExists(proj.OutputPath) {
		return nil, fmt.Errorf("output directory for project '%s' does not exist: %s", proj.Name, proj.OutputPath)
	}
	if _, err := security.ContainedPath(proj.OutputPath, destination); err == nil {
		return nil, fmt.Errorf("destination %s is inside the output directory %s", destination, proj.OutputPath)
	}

	if err := os.MkdirAll(destination, security.PermDirectory); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	var files int64
	start := time.Now()
	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction { return copy.Shallow },
		Skip: func(info os.FileInfo, src, dest string) (bool, error) {
			if err := ctx.Err(); err != nil {
				return true, err
			}
			if !info.IsDir() {
				atomic.AddInt64(&files, 1)
			}
			return false, nil
		},
		Sync:          e.Sync,
		PreserveTimes: true,
	}

	if err := copy.Copy(proj.OutputPath, destination, opts); err != nil {
		return nil, fmt.Errorf("failed to copy %s to %s: %w", proj.OutputPath, destination, err)
	}

	return &CopyResult{
		Project:     proj.Name,
		Source:      proj.OutputPath,
		Destination: filepath.Clean(destination),
		Files:       atomic.LoadInt64(&files),
		Duration:    time.Since(start),
	}, nil
}
