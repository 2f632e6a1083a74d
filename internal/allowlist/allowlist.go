// Package allowlist narrows or excludes scan scope from an optional YAML
// resource. Configuration problems never abort a run: the fallback is always
// "scan everything, skip nothing" plus a warning.
package allowlist

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openmeethq/codegate/internal/support"
)

// File is the on-disk shape of the allowlist resource.
type File struct {
	SkipPaths     []string `yaml:"skipPaths"`
	SkipPatterns  []string `yaml:"skipPatterns"`
	OnlyScanRoots []string `yaml:"onlyScanRoots"`
}

// Allowlist is the compiled form. Immutable after load; safe to share across
// scan workers.
type Allowlist struct {
	skipPaths    []string
	skipPatterns []*regexp.Regexp
	onlyRoots    []string
}

// Empty scans everything and skips nothing.
func Empty() *Allowlist { return &Allowlist{} }

// Load reads and compiles the allowlist at path. A missing file is the empty
// allowlist; anything malformed degrades with a warning instead of an error.
func Load(path string) (*Allowlist, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return Empty(), []string{fmt.Sprintf("allowlist unreadable (%v); scanning everything", err)}
	}
	return Parse(data)
}

// Parse compiles raw YAML bytes into an Allowlist.
func Parse(data []byte) (*Allowlist, []string) {
	var f File
	if err := yaml.Unmarshal(support.StripBOM(data), &f); err != nil {
		return Empty(), []string{fmt.Sprintf("allowlist malformed (%v); scanning everything", err)}
	}
	return FromFile(f)
}

// FromFile compiles an already-decoded File. Bad skip patterns are dropped
// individually; the rest of the allowlist still applies.
func FromFile(f File) (*Allowlist, []string) {
	var warnings []string
	a := &Allowlist{}

	for _, p := range f.SkipPaths {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p != "" {
			a.skipPaths = append(a.skipPaths, p)
		}
	}
	for _, raw := range f.SkipPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skip pattern %q dropped: %v", raw, err))
			continue
		}
		a.skipPatterns = append(a.skipPatterns, re)
	}
	for _, r := range f.OnlyScanRoots {
		r = strings.TrimRight(strings.TrimSpace(filepath.ToSlash(r)), "/")
		if r != "" {
			a.onlyRoots = append(a.onlyRoots, r)
		}
	}
	return a, warnings
}

// Skips reports whether the workspace-relative path matches a skip fragment
// or skip pattern. Skip wins over every include mechanism.
func (a *Allowlist) Skips(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, frag := range a.skipPaths {
		if strings.Contains(rel, frag) {
			return true
		}
	}
	for _, re := range a.skipPatterns {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// SkipsDir reports whether a skip fragment already matches the directory
// path, so the whole subtree can be pruned. Regex patterns are not
// prefix-closed and are checked per file instead.
func (a *Allowlist) SkipsDir(relDir string) bool {
	relDir = filepath.ToSlash(relDir) + "/"
	for _, frag := range a.skipPaths {
		if strings.Contains(relDir, frag) {
			return true
		}
	}
	return false
}

// InRoots reports whether the path lies under one of onlyScanRoots. Roots
// may be workspace-relative or absolute; with none configured every path
// qualifies.
func (a *Allowlist) InRoots(rel, abs string) bool {
	if len(a.onlyRoots) == 0 {
		return true
	}
	relS := filepath.ToSlash(rel)
	absS := filepath.ToSlash(abs)
	for _, root := range a.onlyRoots {
		target := relS
		if strings.HasPrefix(root, "/") || filepath.IsAbs(root) {
			target = absS
		}
		if target == root || strings.HasPrefix(target, root+"/") {
			return true
		}
	}
	return false
}

// Allowed combines both checks with skip-wins precedence.
func (a *Allowlist) Allowed(rel, abs string) bool {
	return !a.Skips(rel) && a.InRoots(rel, abs)
}

// Counts returns the compiled sizes for readiness reporting.
func (a *Allowlist) Counts() (paths, patterns, roots int) {
	return len(a.skipPaths), len(a.skipPatterns), len(a.onlyRoots)
}
