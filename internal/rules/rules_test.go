package rules

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Catalog invariants
// ---------------------------------------------------------------------------

func TestDefaultCatalogValidates(t *testing.T) {
	if err := DefaultCatalog().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestDefaultCatalogCoversAllCategories(t *testing.T) {
	want := []Category{
		CategoryDebug,
		CategoryMarker,
		CategoryPlaceholder,
		CategoryMock,
		CategoryEmptyImpl,
		CategorySecurity,
	}
	have := map[Category]bool{}
	for _, r := range DefaultCatalog() {
		have[r.Category] = true
	}
	for _, c := range want {
		if !have[c] {
			t.Fatalf("catalog missing category %s", c)
		}
	}
}

func TestSeverityUniformPerCategory(t *testing.T) {
	bycat := map[Category]Severity{}
	for _, r := range DefaultCatalog() {
		if prev, ok := bycat[r.Category]; ok && prev != r.Severity {
			t.Fatalf("category %s mixes severities %s and %s", r.Category, prev, r.Severity)
		}
		bycat[r.Category] = r.Severity
	}
}

func TestOnlyMarkerRulesRequireComments(t *testing.T) {
	for _, r := range DefaultCatalog() {
		isMarker := r.Category == CategoryMarker
		requiresComment := r.Where == MatchComment
		if isMarker != requiresComment {
			t.Fatalf("rule %s: comment requirement does not line up with category %s", r.ID, r.Category)
		}
	}
}

func TestCatalogValidateRejectsDuplicates(t *testing.T) {
	cat := DefaultCatalog()
	cat = append(cat, cat[0])
	if err := cat.Validate(); err == nil {
		t.Fatal("expected duplicate id to fail validation")
	}
}

func TestFind(t *testing.T) {
	cat := DefaultCatalog()
	if _, ok := cat.Find("MRK-001"); !ok {
		t.Fatal("expected to find MRK-001")
	}
	if _, ok := cat.Find("NOPE-999"); ok {
		t.Fatal("did not expect to find NOPE-999")
	}
}

// ---------------------------------------------------------------------------
// Pattern behavior
// ---------------------------------------------------------------------------

func TestMarkerPatternRequiresColon(t *testing.T) {
	rule, _ := DefaultCatalog().Find("MRK-001")

	if !rule.Pattern.MatchString("// TODO: wire this up") {
		t.Fatal("TODO with colon must match")
	}
	if rule.Pattern.MatchString("// TODO wire this up") {
		t.Fatal("TODO without colon must not match")
	}
	if rule.Pattern.MatchString("{ todo: 1 }") {
		t.Fatal("lowercase todo: must not match")
	}
	if rule.Pattern.MatchString("// myTODO: note") {
		t.Fatal("suffix of an identifier must not match")
	}
}

func TestDebugPatternBoundaries(t *testing.T) {
	rule, _ := DefaultCatalog().Find("DBG-001")

	if !rule.Pattern.MatchString("console.log(x)") {
		t.Fatal("console.log call must match")
	}
	if !rule.Pattern.MatchString("console.debug ( x )") {
		t.Fatal("spaced call must match")
	}
	if rule.Pattern.MatchString("myconsole.log(x)") {
		t.Fatal("identifier suffix must not match")
	}
	if rule.Pattern.MatchString("console.error(x)") {
		t.Fatal("console.error is not banned")
	}
}

func TestCredentialPatternAndVeto(t *testing.T) {
	rule, _ := DefaultCatalog().Find("SEC-004")

	line := `const apiKey = "sk-0123456789abcdef";`
	if !rule.Pattern.MatchString(line) {
		t.Fatal("hardcoded key must match")
	}
	envLine := `const apiKey = process.env.API_KEY || "";`
	if rule.Reject == nil || !rule.Reject.MatchString(envLine) {
		t.Fatal("environment-sourced line must be vetoed")
	}
	short := `const token = "abc";`
	if rule.Pattern.MatchString(short) {
		t.Fatal("short values are not credential-shaped")
	}
}

func TestPlaceholderPhrasePattern(t *testing.T) {
	rule, _ := DefaultCatalog().Find("PLH-004")

	cases := []struct {
		text string
		want bool
	}{
		{"<Badge>Coming soon</Badge>", true},
		{"disabled in production", true},
		{"keep the shim for now", true},
		{"const fornow = 1;", false},
		{"production.deploy()", false},
	}
	for _, tc := range cases {
		if got := rule.Pattern.MatchString(tc.text); got != tc.want {
			t.Fatalf("PLH-004 on %q = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestEmptyImplementationPattern(t *testing.T) {
	rule, _ := DefaultCatalog().Find("EMP-001")

	cases := []struct {
		line string
		want bool
	}{
		{"return null; // TODO: real lookup", true},
		{"return {}; // stub", true},
		{"return []; // placeholder", true},
		{"return null;", false},
		{"return buildUsers(); // TODO: paginate", false},
	}
	for _, tc := range cases {
		if got := rule.Pattern.MatchString(tc.line); got != tc.want {
			t.Fatalf("EMP-001 on %q = %v, want %v", tc.line, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// File predicates
// ---------------------------------------------------------------------------

func TestIsTestFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"src/app.test.ts", true},
		{"src/app.spec.tsx", true},
		{"pkg/thing_test.go", true},
		{"src/__tests__/helper.ts", true},
		{"tests/setup.ts", true},
		{"e2e/login.ts", true},
		{"src/app.ts", false},
		{"src/latest/app.ts", false},
		{"src/attestation.ts", false},
	}
	for _, tc := range cases {
		if got := IsTestFile(tc.path); got != tc.want {
			t.Fatalf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsToolingFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"scripts/migrate.ts", true},
		{"tools/gen.js", true},
		{".codegate/allowlist.yml", true},
		{"src/scripts.ts", false},
		{"src/app.ts", false},
	}
	for _, tc := range cases {
		if got := IsToolingFile(tc.path); got != tc.want {
			t.Fatalf("IsToolingFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestRuleApplies(t *testing.T) {
	debug, _ := DefaultCatalog().Find("DBG-001")
	marker, _ := DefaultCatalog().Find("MRK-001")
	sec, _ := DefaultCatalog().Find("SEC-001")

	if debug.Applies("src/app.test.ts") {
		t.Fatal("debug rule must skip test files")
	}
	if !marker.Applies("src/app.test.ts") {
		t.Fatal("marker rule applies to test files")
	}
	if !sec.Applies("src/app.test.ts") {
		t.Fatal("security rule applies to test files")
	}
	if debug.Applies("src/logging/logger.ts") {
		t.Fatal("debug rule must honor its file exceptions")
	}
	if debug.Applies("scripts/seed.ts") {
		t.Fatal("tooling files are exempt for every rule")
	}
	if !debug.Applies("src/app.ts") {
		t.Fatal("plain source must be in scope")
	}
}
