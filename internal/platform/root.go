package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName marks a library workspace and holds its configuration.
const ConfigFileName = "lectern.toml"

// FindRoot recursively looks upwards for a workspace indicator
// (a lectern.toml file or a .lectern directory) and returns the absolute
// path of the directory holding it.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		// Check for indicators
		if hasFile(dir, ConfigFileName) || hasFile(dir, ".lectern") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return err == nil
}
