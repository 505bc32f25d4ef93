package config

import (
	"os"
	"path/filepath"
	"strings"
)

// expandPath expands environment variables and a leading ~ in p.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)
	if expanded != "~" && !strings.HasPrefix(expanded, "~"+string(filepath.Separator)) && !strings.HasPrefix(expanded, "~/") {
		return expanded
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return expanded
	}
	if expanded == "~" {
		return home
	}
	return filepath.Join(home, expanded[2:])
}
