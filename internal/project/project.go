// Package project locates the project a docrag invocation is scoped to and
// resolves where its vector store lives on disk.
//
// Detection walks upward from a starting directory looking for the markers
// listed in spec.md's "Project scoping" section: .git, go.mod, package.json,
// pyproject.toml, Cargo.toml, pom.xml, build.gradle, Gemfile, composer.json,
// .project. The first directory (searching outward) that contains any marker
// is the project root; docrag then stores its index under
// <project_root>/.coderag/ and adds that directory to the project's
// .gitignore. When no marker is found anywhere above the starting directory,
// the caller falls back to a per-user global store.
package project

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/coderag/docrag/internal/config"
)

// Info describes the project a docrag session is scoped to.
type Info struct {
	RootPath string `json:"root_path"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	// Marker is the file or directory name whose presence established
	// RootPath, e.g. "go.mod" or ".git". Empty when no marker was found.
	Marker string `json:"marker,omitempty"`
}

// marker pairs a filesystem entry name with the project type it implies.
// Order matters: it is the same priority the teacher's ProjectDetector used
// for go.mod/package.json/pyproject.toml, extended with the rest of
// spec.md's manifest list. Name-extraction logic only exists for the three
// ecosystems the teacher originally handled; the rest fall back to the
// directory's base name.
type marker struct {
	name string
	typ  string
}

var markers = []marker{
	{"go.mod", "go"},
	{"package.json", "node"},
	{"pyproject.toml", "python"},
	{"Cargo.toml", "rust"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"Gemfile", "ruby"},
	{"composer.json", "php"},
	{".project", "unknown"},
	{".git", "unknown"},
}

// Detect walks upward from startDir looking for the first directory
// containing any of the markers above. It returns nil, false when no marker
// is found by the time it reaches the filesystem root.
func Detect(startDir string) (*Info, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}

	for {
		for _, m := range markers {
			p := filepath.Join(dir, m.name)
			if fileOrDirExists(p) {
				return &Info{
					RootPath: dir,
					Name:     detectName(dir, m),
					Type:     m.typ,
					Marker:   m.name,
				}, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

func detectName(dir string, m marker) string {
	switch m.name {
	case "go.mod":
		if name := detectGoModName(filepath.Join(dir, m.name)); name != "" {
			return name
		}
	case "package.json":
		if name := detectPackageJSONName(filepath.Join(dir, m.name)); name != "" {
			return name
		}
	case "pyproject.toml":
		if name := detectPyprojectName(filepath.Join(dir, m.name)); name != "" {
			return name
		}
	}
	return filepath.Base(dir)
}

var goModuleRe = regexp.MustCompile(`(?m)^module\s+(\S+)`)

func detectGoModName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	match := goModuleRe.FindSubmatch(data)
	if match == nil {
		return ""
	}
	return filepath.Base(strings.TrimSpace(string(match[1])))
}

var packageNameRe = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)

func detectPackageJSONName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	match := packageNameRe.FindSubmatch(data)
	if match == nil {
		return ""
	}
	name := string(match[1])
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

var pyprojectNameRe = regexp.MustCompile(`(?m)^\s*name\s*=\s*["']([^"']+)["']`)

func detectPyprojectName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	inProjectSection := false
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inProjectSection = trimmed == "[project]" || trimmed == "[tool.poetry]"
			continue
		}
		if !inProjectSection {
			continue
		}
		if match := pyprojectNameRe.FindStringSubmatch(line); match != nil {
			return match[1]
		}
	}
	return ""
}

func fileOrDirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const storeDirName = ".coderag"
const storeFileName = "vectordb.json"

// StorePath resolves where the vector store lives for a session started
// from startDir, per spec.md's project-scoping rule: a project-local path
// under <project_root>/.coderag/ when startDir is inside a detected project
// tree, otherwise a per-user global path. It returns the resolved path and
// the Info that produced it (nil when the global path was used).
func StorePath(startDir string) (string, *Info) {
	info, ok := Detect(startDir)
	if !ok {
		return globalStorePath(), nil
	}
	return filepath.Join(info.RootPath, storeDirName, storeFileName), info
}

func globalStorePath() string {
	return filepath.Join(config.GetUserConfigDir(), storeFileName)
}

// EnsureIgnored adds the store directory to the project's .gitignore (or
// creates one) if it isn't already covered by an existing pattern. It is a
// no-op when info is nil (global, non-project-scoped store).
func EnsureIgnored(info *Info) error {
	if info == nil {
		return nil
	}
	return ensureIgnorePattern(info.RootPath, storeDirName+"/")
}
