package scan

import (
	"os"
	"testing"
)

func TestGlobsDemanglesMatchedFiles(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	if err := os.WriteFile("crash.symbols", []byte("_TF3foo3barFSiSi\n"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := os.WriteFile("notes.txt", []byte("nothing to see here"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result, err := Globs([]string{"*.symbols"})
	if err != nil {
		t.Fatalf("Globs() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected 1 matched file, got %d", len(result.Files))
	}
	if result.Files[0].Path != "crash.symbols" {
		t.Fatalf("expected crash.symbols, got %s", result.Files[0].Path)
	}
	if result.Files[0].Tokens != 1 {
		t.Fatalf("expected 1 candidate token, got %d", result.Files[0].Tokens)
	}
	if want := "foo.bar (Swift.Int) -> Swift.Int\n"; result.Files[0].Demangled != want {
		t.Fatalf("got demangled content %q, want %q", result.Files[0].Demangled, want)
	}
}

func TestGlobsSkipsUnmatchedFiles(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	if err := os.WriteFile("notes.txt", []byte("_TF3foo3barFSiSi"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result, err := Globs([]string{"*.symbols"})
	if err != nil {
		t.Fatalf("Globs() error = %v", err)
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Files))
	}
}

func TestGlobsDeduplicatesOverlappingPatterns(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	if err := os.WriteFile("a.symbols", []byte("_TF3foo3barFSiSi"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result, err := Globs([]string{"*.symbols", "a.*"})
	if err != nil {
		t.Fatalf("Globs() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected exactly one match across overlapping patterns, got %d", len(result.Files))
	}
}

func TestSummaryFormatting(t *testing.T) {
	r := &Result{TotalTokens: 0}
	if got, want := r.Summary(), "no candidate symbols found"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	r = &Result{TotalTokens: 2, DemangledTokens: 1}
	if got, want := r.Summary(), "demangled 1 of 2 tokens (50%)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
