package rules

import (
	"fmt"
	"regexp"
)

// Catalog is the ordered rule list shared by every entry point. There is one
// canonical catalog; scan, verify, watch and the rules listing all consume it.
type Catalog []Rule

// Find returns the rule with the given id.
func (c Catalog) Find(id string) (Rule, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks the invariants the rest of the pipeline relies on.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := map[string]bool{}
	for _, r := range c {
		if r.ID == "" {
			return fmt.Errorf("rule with empty id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id: %s", r.ID)
		}
		seen[r.ID] = true
		if r.Pattern == nil {
			return fmt.Errorf("rule %s has no pattern", r.ID)
		}
		if r.Message == "" {
			return fmt.Errorf("rule %s has no message", r.ID)
		}
		if r.Severity < SeverityInfo || r.Severity > SeverityBlocker {
			return fmt.Errorf("rule %s has invalid severity", r.ID)
		}
	}
	return nil
}

// DefaultCatalog builds the canonical catalog. Patterns run over whole file
// content and never span newlines; severities are fixed per category.
func DefaultCatalog() Catalog {
	return Catalog{
		// Debug statements left in source. Logging wrappers legitimately
		// reference the console, so those files are excepted.
		{
			ID:       "DBG-001",
			Category: CategoryDebug,
			Severity: SeverityMinor,
			Message:  "console logging left in source",
			Pattern:  regexp.MustCompile(`\bconsole\.(log|debug|trace)\s*\(`),
			FileExceptions: []string{
				"logger",
				"logging",
			},
		},
		{
			ID:       "DBG-002",
			Category: CategoryDebug,
			Severity: SeverityMinor,
			Message:  "debugger statement left in source",
			Pattern:  regexp.MustCompile(`\bdebugger\b`),
		},
		{
			ID:       "DBG-003",
			Category: CategoryDebug,
			Severity: SeverityMinor,
			Message:  "blocking alert dialog",
			Pattern:  regexp.MustCompile(`\balert\s*\(`),
		},

		// Unresolved work markers. The colon is required and the token must
		// sit inside a comment; a code identifier spelled todo: is not an
		// unresolved task.
		{
			ID:                 "MRK-001",
			Category:           CategoryMarker,
			Severity:           SeverityMajor,
			Message:            "unresolved marker comment",
			Pattern:            regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX):`),
			Where:              MatchComment,
			AppliesToTestFiles: true,
		},

		// Placeholder language that signals unfinished behavior shipped as
		// real behavior.
		{
			ID:       "PLH-001",
			Category: CategoryPlaceholder,
			Severity: SeverityMajor,
			Message:  "not-implemented error thrown as behavior",
			Pattern:  regexp.MustCompile(`(?i)throw\s+new\s+Error\(\s*['"](not (yet )?implemented|todo|coming soon|placeholder)`),
		},
		{
			ID:       "PLH-002",
			Category: CategoryPlaceholder,
			Severity: SeverityMajor,
			Message:  "placeholder identifier in source",
			Pattern:  regexp.MustCompile(`\b(forNow|for_now|comingSoon|coming_soon|tempImpl|temp_impl)\b`),
		},
		{
			ID:       "PLH-003",
			Category: CategoryPlaceholder,
			Severity: SeverityMajor,
			Message:  "hypothetical behavior described instead of implemented",
			Pattern:  regexp.MustCompile(`(?i)\bwould\s+(query|fetch|send|call|save)\s+(the\s+)?(db|database|api|server|backend)\b`),
		},
		// The phrase forms surface in JSX text, which is code state.
		{
			ID:       "PLH-004",
			Category: CategoryPlaceholder,
			Severity: SeverityMajor,
			Message:  "placeholder phrase in source",
			Pattern:  regexp.MustCompile(`(?i)\b(for now|coming soon|in production)\b`),
		},

		// Mock and stub indicators outside test suites.
		{
			ID:       "MCK-001",
			Category: CategoryMock,
			Severity: SeverityCritical,
			Message:  "mock data identifier in non-test source",
			Pattern:  regexp.MustCompile(`\b(mock|stub|fake|dummy)(Data|Response|Result|User|Users|Payload|Items)\b`),
		},
		{
			ID:       "MCK-002",
			Category: CategoryMock,
			Severity: SeverityCritical,
			Message:  "mock value returned from non-test source",
			Pattern:  regexp.MustCompile(`\breturn\s+(mock|fake|dummy|stub)[A-Z_]\w*`),
		},

		// Empty implementations hidden behind a marker comment on the same
		// line.
		{
			ID:       "EMP-001",
			Category: CategoryEmptyImpl,
			Severity: SeverityCritical,
			Message:  "empty implementation guarded by a marker comment",
			Pattern:  regexp.MustCompile(`(?i)return\s+(null|undefined|\{\}|\[\])\s*;?\s*//\s*(TODO|FIXME|HACK|XXX|stub|placeholder|for now|temp)`),
		},

		// Security-sensitive constructs. These apply everywhere, tests
		// included.
		{
			ID:                 "SEC-001",
			Category:           CategorySecurity,
			Severity:           SeverityBlocker,
			Message:            "dynamic code evaluation",
			Pattern:            regexp.MustCompile(`\beval\s*\(`),
			AppliesToTestFiles: true,
		},
		{
			ID:                 "SEC-002",
			Category:           CategorySecurity,
			Severity:           SeverityBlocker,
			Message:            "dynamic code evaluation via Function constructor",
			Pattern:            regexp.MustCompile(`\bnew\s+Function\s*\(`),
			AppliesToTestFiles: true,
		},
		{
			ID:                 "SEC-003",
			Category:           CategorySecurity,
			Severity:           SeverityBlocker,
			Message:            "unsanitized HTML injection sink",
			Pattern:            regexp.MustCompile(`(\.innerHTML\s*=|\.outerHTML\s*=|document\.write\s*\(|dangerouslySetInnerHTML)`),
			AppliesToTestFiles: true,
		},
		{
			ID:                 "SEC-004",
			Category:           CategorySecurity,
			Severity:           SeverityBlocker,
			Message:            "hardcoded credential-shaped assignment",
			Pattern:            regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|apikey|token|credential)s?\s*[:=]\s*['"][^'"]{8,}['"]`),
			AppliesToTestFiles: true,
			Reject:             regexp.MustCompile(`(?i)process\.env|import\.meta\.env|os\.environ|getenv\(`),
		},
	}
}
