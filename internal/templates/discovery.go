package templates

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is the project-relative location of the template file.
const DefaultConfigFile = ".cmdsieve/config.yaml"

// FindConfigFile looks for relPath in startDir and each of its parents and
// returns the first regular file found. The search stops after stopDir has
// been checked, or at the filesystem root when stopDir is empty.
func FindConfigFile(startDir, stopDir, relPath string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	if stopDir != "" {
		if stopDir, err = filepath.Abs(stopDir); err != nil {
			return "", false
		}
	}

	for {
		candidate := filepath.Join(dir, relPath)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}

		if dir == stopDir {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
