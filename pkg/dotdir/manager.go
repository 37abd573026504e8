// Package dotdir manages the ./.pearl and ~/.pearl directories that hold
// config.toml and an optional persona.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the pearl directory.
	DirName = ".pearl"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .pearl/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.pearl/ dir
//  3. Home ~/.pearl/ dir
//  4. If none found, attempt to create ~/.pearl/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating pearl directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// InitLocal creates ./.pearl/ in the current working directory. It reports
// false when the directory already existed.
func (m *Manager) InitLocal() (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, DirName)
	if m.localDirExists() {
		return dir, false, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating .pearl directory: %w", err)
	}

	return dir, true, nil
}

// localDirExists checks whether a .pearl/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
