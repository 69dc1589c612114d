package security

import (
	"fmt"
	"os"
)

const (
	// PermConfigFile is for workspace configuration and YAML history files.
	// rw-r----- (0640): owner can read/write, group can read, others have no access.
	PermConfigFile os.FileMode = 0640

	// PermDBFile is for the SQLite location history database.
	// rw-r----- (0640): owner can read/write, group can read, others have no access.
	PermDBFile os.FileMode = 0640

	// PermLogFile is for the serve command's log file.
	PermLogFile os.FileMode = 0640

	// PermDirectory is for state directories (e.g. .autodeploy/).
	// rwxr-x--- (0750): owner can read/write/execute, group can read/execute, others have no access.
	PermDirectory os.FileMode = 0750
)

// CreateSecureDir creates a new directory with secure permissions.
// If the directory already exists, it updates the permissions.
// Creates parent directories as needed.
func CreateSecureDir(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("failed to create secure directory: %w", err)
	}

	// Ensure permissions are set correctly (MkdirAll may use umask)
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("failed to set directory permissions: %w", err)
	}

	return nil
}

// FixFilePermissions sets the correct permissions on a file.
func FixFilePermissions(path string, perm os.FileMode) error {
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("failed to fix file permissions: %w", err)
	}
	return nil
}

// IsWorldWritable checks if a file is writable by others.
func IsWorldWritable(perm os.FileMode) bool {
	return perm&0002 != 0
}
