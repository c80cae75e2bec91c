// Package config resolves the orchestration configuration directory and
// holds server-level settings.
package config

import (
	"fmt"
	"os"
)

// EnvConfigDir is the process-wide fallback for the configuration
// directory when no explicit path is supplied.
const EnvConfigDir = "MCO_CONFIG_DIR"

// Resolve picks the configuration directory: the explicit parameter
// first, then the server-level fallback, then the environment. The
// chosen path must exist and be a directory. Absence of all three is an
// error for the caller to classify; it is checked per orchestration
// start, never at process start.
func Resolve(explicit, fallback string) (string, error) {
	dir := explicit
	if dir == "" {
		dir = fallback
	}
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		return "", fmt.Errorf("no configuration directory: pass config_dir or set %s", EnvConfigDir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("configuration directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("configuration path %s is not a directory", dir)
	}
	return dir, nil
}
