// Package scan implements the batch front end used by `swift-demangle
// scan`: find files matching a set of doublestar glob patterns, extract
// candidate legacy-mangled tokens from their contents, and demangle them
// in place.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/appsworld/swift-demangle/demangle"
)

// mangledTokenPattern mirrors demangle.DemangleBlob's token matcher; kept
// as a separate copy here so scan can also report how many candidate
// tokens it found, not just the rewritten text.
var mangledTokenPattern = regexp.MustCompile(`_T(?:TS|To|TO)?[A-Za-z0-9_]+`)

// FileResult holds one scanned file's demangled contents.
type FileResult struct {
	Path      string
	Demangled string
	Tokens    int
}

// Result aggregates the outcome of a Globs call.
type Result struct {
	Files           []FileResult
	TotalTokens     int
	DemangledTokens int
}

// Summary renders a go-humanize-formatted one-line count, the style the
// teacher's own CLI output favors over a raw integer dump.
func (r *Result) Summary() string {
	if r.TotalTokens == 0 {
		return "no candidate symbols found"
	}
	pct := 100 * r.DemangledTokens / r.TotalTokens
	return fmt.Sprintf("demangled %s of %s tokens (%d%%)",
		humanize.Comma(int64(r.DemangledTokens)), humanize.Comma(int64(r.TotalTokens)), pct)
}

// Globs walks every file matched by any of patterns (doublestar glob
// syntax, evaluated relative to the current working directory) and
// demangles the mangled-looking tokens found in each.
func Globs(patterns []string, opts ...demangle.Option) (*Result, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("scan: resolve working directory: %w", err)
	}
	fsys := os.DirFS(cwd)

	seen := make(map[string]bool)
	result := &Result{}
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("scan: invalid glob %q: %w", pattern, err)
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			fr, err := scanFile(fsys, path, opts...)
			if err != nil {
				continue
			}
			result.Files = append(result.Files, fr)
			result.TotalTokens += fr.Tokens
			result.DemangledTokens += countDemangled(fr)
		}
	}
	return result, nil
}

func scanFile(fsys fs.FS, path string, opts ...demangle.Option) (FileResult, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return FileResult{}, err
	}
	raw := string(data)
	tokens := mangledTokenPattern.FindAllString(raw, -1)
	return FileResult{
		Path:      path,
		Demangled: demangle.DemangleBlob(raw, opts...),
		Tokens:    len(tokens),
	}, nil
}

// countDemangled reports how many of a file's candidate tokens actually
// changed after demangling (a token that fails to parse passes through
// unchanged, per the P1 contract).
func countDemangled(fr FileResult) int {
	originalTokens := mangledTokenPattern.FindAllString(fr.Demangled, -1)
	return fr.Tokens - len(originalTokens)
}
