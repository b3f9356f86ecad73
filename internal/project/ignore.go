package project

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// The matching logic below is trimmed from the teacher's internal/gitignore
// package down to what EnsureIgnored needs: parsing existing patterns
// (including "!" negation, which is honored) and checking whether they cover
// a candidate path. Nested-base patterns and the full anchoring rules are not
// implemented, since docrag only ever checks a single top-level directory
// pattern.

type ignoreRule struct {
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
}

func parseIgnoreRule(pattern string) (ignoreRule, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return ignoreRule{}, false
	}

	r := ignoreRule{}
	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = strings.TrimPrefix(pattern, "!")
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")

	r.regex = regexp.MustCompile("^" + patternToRegex(pattern) + "$")
	return r, true
}

func patternToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '^', '$', '(', ')', '{', '}', '|', '\\':
			b.WriteString(regexp.QuoteMeta(string(c)))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// matchesAnyPattern reports whether candidate (a bare directory or file
// name, e.g. ".coderag") is already covered by one of the given gitignore
// lines.
func matchesAnyPattern(candidate string, lines []string) bool {
	ignored := false
	for _, line := range lines {
		rule, ok := parseIgnoreRule(line)
		if !ok {
			continue
		}
		if rule.regex.MatchString(candidate) {
			ignored = !rule.negation
		}
	}
	return ignored
}

// ensureIgnorePattern appends pattern to rootPath's .gitignore, creating the
// file if needed, unless an existing pattern already covers it. The
// directory name in pattern (without its trailing slash) is what's checked
// against existing rules, so an already-present entry like ".coderag" or
// ".coderag/" is treated as sufficient.
func ensureIgnorePattern(rootPath, pattern string) error {
	gitignorePath := filepath.Join(rootPath, ".gitignore")
	candidate := strings.TrimSuffix(pattern, "/")

	existing, err := readLines(gitignorePath)
	if err != nil {
		return fmt.Errorf("reading .gitignore: %w", err)
	}

	if matchesAnyPattern(candidate, existing) {
		return nil
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer func() { _ = f.Close() }()

	prefix := ""
	if len(existing) > 0 {
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(f, "%s%s\n", prefix, pattern); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
