// Package engine evaluates the rule catalog against selected files. Matching
// runs against whole file contents; the lexing classifier then decides which
// matches count, so quoted or commented lookalikes never become violations
// on their own.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/openmeethq/codegate/internal/lexing"
	"github.com/openmeethq/codegate/internal/logging"
	"github.com/openmeethq/codegate/internal/rules"
)

const matchedTextLimit = 160

// Options describes a single scan run.
type Options struct {
	Workspace        string
	Files            []string
	Catalog          rules.Catalog
	Workers          int
	MaxFileSizeBytes int64
}

// Stats counts per-file outcomes. Scanned covers only files whose content
// was actually evaluated; unreadable, binary, and oversize files land in
// Skipped.
type Stats struct {
	Scanned int
	Skipped int
}

type fileResult struct {
	rel        string
	violations []rules.Violation
	skipped    bool
	reason     string
}

// Run scans all files and returns the unordered violation set. Ordering is
// the report builder's job. Cancellation aborts the run with ctx's error;
// partial results are discarded.
func Run(ctx context.Context, opts Options) ([]rules.Violation, Stats, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				results <- scanOne(opts, rel)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rel := range opts.Files {
			select {
			case jobs <- rel:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []rules.Violation
	var stats Stats
	for res := range results {
		if res.skipped {
			stats.Skipped++
			logging.Log.Warnw("file skipped", "file", res.rel, "reason", res.reason)
			continue
		}
		stats.Scanned++
		all = append(all, res.violations...)
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}
	return all, stats, nil
}

func scanOne(opts Options, rel string) fileResult {
	abs := filepath.Join(opts.Workspace, filepath.FromSlash(rel))
	fi, err := os.Stat(abs)
	if err != nil {
		return fileResult{rel: rel, skipped: true, reason: fmt.Sprintf("stat: %v", err)}
	}
	if opts.MaxFileSizeBytes > 0 && fi.Size() > opts.MaxFileSizeBytes {
		return fileResult{rel: rel, skipped: true, reason: fmt.Sprintf("size %d exceeds limit %d", fi.Size(), opts.MaxFileSizeBytes)}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fileResult{rel: rel, skipped: true, reason: fmt.Sprintf("read: %v", err)}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return fileResult{rel: rel, skipped: true, reason: "binary content"}
	}
	return fileResult{rel: rel, violations: ScanFile(rel, data, opts.Catalog)}
}

// ScanFile evaluates every applicable rule against one file's content.
func ScanFile(rel string, content []byte, catalog rules.Catalog) []rules.Violation {
	text := string(content)
	cls := lexing.NewClassifier(text)
	var out []rules.Violation
	for _, rule := range catalog {
		if !rule.Applies(rel) {
			continue
		}
		out = append(out, matchRule(cls, text, rel, rule)...)
	}
	return out
}

// matchRule isolates one rule-file evaluation: a panicking pattern loses its
// own matches but never the scan.
func matchRule(cls *lexing.Classifier, text, rel string, rule rules.Rule) (violations []rules.Violation) {
	defer func() {
		if r := recover(); r != nil {
			logging.Log.Errorw("rule evaluation panicked", "rule", rule.ID, "file", rel, "panic", r)
			violations = nil
		}
	}()

	for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		state := cls.StateAt(start)
		if rule.Where == rules.MatchComment {
			if !state.Comment() {
				continue
			}
		} else if state != lexing.StateCode {
			continue
		}
		if rule.Reject != nil && rule.Reject.MatchString(lineAround(text, start)) {
			continue
		}
		line, col := lexing.Position(text, start)
		violations = append(violations, rules.Violation{
			File:        rel,
			Line:        line,
			Column:      col,
			RuleID:      rule.ID,
			Category:    rule.Category,
			Severity:    rule.Severity,
			Message:     rule.Message,
			MatchedText: excerpt(text[start:end]),
		})
	}
	return violations
}

func lineAround(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

func excerpt(match string) string {
	match = strings.TrimSpace(match)
	if len(match) > matchedTextLimit {
		return match[:matchedTextLimit]
	}
	return match
}
