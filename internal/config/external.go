package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxInheritDepth bounds inherit chains.
const maxInheritDepth = 16

// resolveExternalPath returns path as-is if absolute, otherwise joins it with dir.
func resolveExternalPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// loadChain reads path and, when it names a base config with inherit, merges
// the base underneath it. Relative inherit paths and search_path entries of
// a base file are resolved against that file's directory.
func loadChain(path string, seen map[string]bool) (Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if seen[abs] {
		return Config{}, fmt.Errorf("config %q inherits itself", path)
	}
	if len(seen) >= maxInheritDepth {
		return Config{}, fmt.Errorf("config inherit chain deeper than %d", maxInheritDepth)
	}
	seen[abs] = true

	contents, err := os.ReadFile(abs)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(contents)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Inherit == "" {
		return cfg, nil
	}

	baseDir := filepath.Dir(abs)
	base, err := loadChain(resolveExternalPath(baseDir, cfg.Inherit), seen)
	if err != nil {
		return Config{}, err
	}
	base.SearchPath = absolutePaths(filepath.Dir(resolveExternalPath(baseDir, cfg.Inherit)), base.SearchPath)
	cfg.fillFrom(base)
	return cfg, nil
}

func absolutePaths(dir string, list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, resolveExternalPath(dir, p))
	}
	return out
}
