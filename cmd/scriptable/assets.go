package main

import (
	"os"
	"path/filepath"
)

// findAsset looks for name as given, then under ./assets, then next to
// the executable. It returns "" when nothing exists.
func findAsset(name string) string {
	if name == "" {
		return ""
	}
	paths := []string{name, filepath.Join("assets", name)}
	if !filepath.IsAbs(name) {
		if exePath, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exePath)
			paths = append(paths,
				filepath.Join(exeDir, "assets", name),
				filepath.Join(exeDir, name))
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
