package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PersonaFile is the persona override looked up inside a .pearl/ directory.
const PersonaFile = "persona.toml"

// PersonaPath returns the path of persona.toml in the target .pearl/
// directory, or "" if the file does not exist.
func (m *Manager) PersonaPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, PersonaFile)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading persona file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("persona path %s is a directory", path)
	}

	return path, nil
}
