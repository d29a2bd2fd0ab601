package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/HelixDB/hls/config"
)

// Scan walks root and loads every file matching the configured include
// globs (minus excludes) into the workspace. Returns the paths loaded.
func (w *Workspace) Scan(root string, cfg *config.Config) ([]string, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var loaded []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := MatchesConfig(root, path, cfg)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		w.SetDocument(path, string(data))
		loaded = append(loaded, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// MatchesConfig reports whether path, relative to root, matches the
// configured include globs and none of the exclude globs.
func MatchesConfig(root, path string, cfg *config.Config) (bool, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)
	included := false
	for _, pattern := range cfg.Workspace.Include {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		if ok {
			included = true
			break
		}
	}
	if !included {
		return false, nil
	}
	for _, pattern := range cfg.Workspace.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}
