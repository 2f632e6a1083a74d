// Package selector walks the workspace and decides which files enter a scan.
// It owns path-level policy only; content-level decisions (binary sniffing,
// size limits) belong to the engine.
package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/openmeethq/codegate/internal/allowlist"
)

// Select returns the workspace-relative, slash-separated, sorted list of
// files to scan. Include globs and exclude dirs come from configuration; the
// allowlist applies after them with skip-wins precedence. Per-entry walk
// errors degrade to warnings; only an unusable workspace root is fatal.
func Select(workspace string, includeGlobs, excludeDirs []string, allow *allowlist.Allowlist) ([]string, []string, error) {
	root, err := filepath.Abs(workspace)
	if err != nil {
		return nil, nil, err
	}
	if fi, statErr := os.Stat(root); statErr != nil || !fi.IsDir() {
		return nil, nil, fmt.Errorf("workspace root %s is not a directory", workspace)
	}
	if allow == nil {
		allow = allowlist.Empty()
	}
	globs, warnings := compileGlobs(includeGlobs)

	skipDirs := map[string]struct{}{}
	for _, d := range excludeDirs {
		skipDirs[d] = struct{}{}
	}

	files := []string{}
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			warnings = append(warnings, fmt.Sprintf("cannot access %s: %v", path, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if _, ok := skipDirs[info.Name()]; ok {
				return filepath.SkipDir
			}
			if allow.SkipsDir(rel) {
				return filepath.SkipDir
			}
			// onlyScanRoots never prunes: a root may sit anywhere below.
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !matchAny(globs, rel) {
			return nil
		}
		if !allow.Allowed(rel, path) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if walkErr != nil {
		return nil, warnings, walkErr
	}
	sort.Strings(files)
	return files, warnings, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, []string) {
	var globs []glob.Glob
	var warnings []string
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("include glob %q dropped: %v", p, err))
			continue
		}
		globs = append(globs, g)
	}
	return globs, warnings
}

// "./" lets **/-anchored patterns reach top-level files.
func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) || g.Match("./"+rel) {
			return true
		}
	}
	return false
}
