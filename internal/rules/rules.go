package rules

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Category groups rules that detect the same construct family. Severity is
// uniform within a category.
type Category string

const (
	CategoryDebug       Category = "forbidden-debug-statement"
	CategoryMarker      Category = "unresolved-marker"
	CategoryPlaceholder Category = "placeholder-language"
	CategoryMock        Category = "mock-or-stub"
	CategoryEmptyImpl   Category = "empty-implementation"
	CategorySecurity    Category = "security-sensitive"
)

// Where states which lexical context a rule's matches must occupy to count.
type Where int

const (
	// MatchCode keeps a match only when it sits in executable code.
	MatchCode Where = iota
	// MatchComment keeps a match only inside a comment. Marker rules use
	// this: TODO in running code is an identifier, not an unresolved task.
	MatchComment
)

// Rule is one named, severity-tagged pattern check. Immutable once built.
type Rule struct {
	ID                 string
	Category           Category
	Severity           Severity
	Message            string
	Pattern            *regexp.Regexp
	Where              Where
	AppliesToTestFiles bool
	// FileExceptions lists path fragments whose files this rule skips.
	FileExceptions []string
	// Reject vetoes a match when it matches the matched line. Used to let
	// credential-shaped assignments through when the value comes from the
	// environment.
	Reject *regexp.Regexp
}

// Applies reports whether the rule should run against path at all.
func (r Rule) Applies(path string) bool {
	p := filepath.ToSlash(path)
	if IsToolingFile(p) {
		return false
	}
	if !r.AppliesToTestFiles && IsTestFile(p) {
		return false
	}
	for _, frag := range r.FileExceptions {
		if strings.Contains(p, frag) {
			return false
		}
	}
	return true
}

// Violation is one concrete match of a Rule against a file. Never mutated
// after creation.
type Violation struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Column      int      `json:"column,omitempty"`
	RuleID      string   `json:"rule"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	MatchedText string   `json:"matchedText,omitempty"`
}

// IsTestFile classifies paths whose findings are usually intentional: test
// suites mock, stub and log on purpose.
func IsTestFile(path string) bool {
	p := strings.ToLower(filepath.ToSlash(path))
	name := p
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		name = p[i+1:]
	}
	if strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") || strings.Contains(name, "_test.") {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "__tests__", "tests", "test", "e2e":
			return true
		}
	}
	return false
}

// IsToolingFile classifies the detector's own surface and script dirs, so the
// catalog never flags the pattern strings that define it.
func IsToolingFile(path string) bool {
	p := strings.ToLower(filepath.ToSlash(path))
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "scripts", "tools", ".codegate":
			return true
		}
	}
	return false
}
