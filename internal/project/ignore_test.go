package project

import "testing"

func TestMatchesAnyPatternBareDirectoryEntry(t *testing.T) {
	if !matchesAnyPattern(".coderag", []string{".coderag/"}) {
		t.Fatal("expected .coderag/ pattern to cover bare .coderag candidate")
	}
}

func TestMatchesAnyPatternUnrelatedPatternDoesNotMatch(t *testing.T) {
	if matchesAnyPattern(".coderag", []string{"node_modules/", "*.log"}) {
		t.Fatal("expected unrelated patterns not to match .coderag")
	}
}

func TestMatchesAnyPatternRespectsNegation(t *testing.T) {
	if matchesAnyPattern(".coderag", []string{".coderag/", "!.coderag"}) {
		t.Fatal("expected negation to undo the earlier ignore rule")
	}
}

func TestMatchesAnyPatternSkipsCommentsAndBlankLines(t *testing.T) {
	if matchesAnyPattern(".coderag", []string{"# .coderag/", "", "   "}) {
		t.Fatal("expected comments and blank lines to be ignored")
	}
}
