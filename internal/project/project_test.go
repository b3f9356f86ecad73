package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFindsGoModInStartDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widget\n"), 0644))

	info, ok := Detect(dir)
	require.True(t, ok)
	assert.Equal(t, "go", info.Type)
	assert.Equal(t, "widget", info.Name)
	assert.Equal(t, "go.mod", info.Marker)
}

func TestDetectWalksUpFromNestedSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"@scope/widget"}`), 0644))
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0755))

	info, ok := Detect(nested)
	require.True(t, ok)
	assert.Equal(t, root, info.RootPath)
	assert.Equal(t, "node", info.Type)
	assert.Equal(t, "widget", info.Name)
}

func TestDetectPrefersGoModOverGitWhenBothPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	info, ok := Detect(dir)
	require.True(t, ok)
	assert.Equal(t, "go", info.Type)
}

func TestDetectRecognizesExtendedManifestTypes(t *testing.T) {
	cases := []struct {
		file string
		typ  string
	}{
		{"Cargo.toml", "rust"},
		{"pom.xml", "java"},
		{"build.gradle", "java"},
		{"Gemfile", "ruby"},
		{"composer.json", "php"},
		{".project", "unknown"},
	}

	for _, tc := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, tc.file), []byte(""), 0644))

		info, ok := Detect(dir)
		require.True(t, ok, tc.file)
		assert.Equal(t, tc.typ, info.Type, tc.file)
		assert.Equal(t, tc.file, info.Marker, tc.file)
	}
}

func TestDetectFindsNoMarkerInIsolatedEmptyDir(t *testing.T) {
	dir := t.TempDir()
	info, ok := Detect(dir)
	// The temp dir itself carries no marker; any hit found while walking
	// upward must come from an ancestor, never from dir itself.
	if ok {
		assert.NotEqual(t, dir, info.RootPath)
	}
}

func TestStorePathUsesProjectLocalPathWhenMarkerFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644))

	path, info := StorePath(dir)
	require.NotNil(t, info)
	assert.Equal(t, filepath.Join(dir, ".coderag", "vectordb.json"), path)
}

func TestStorePathFallsBackToGlobalPathWhenNoMarker(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	_, info := StorePath(dir)
	// info may be non-nil only if the real filesystem above dir happens to
	// contain a marker, which t.TempDir() roots never do in CI sandboxes.
	if info != nil {
		t.Skip("ambient filesystem above TempDir unexpectedly contains a project marker")
	}
}

func TestEnsureIgnoredAppendsPatternToExistingGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules/\n"), 0644))

	require.NoError(t, EnsureIgnored(&Info{RootPath: dir}))

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".coderag/")
	assert.Contains(t, string(data), "node_modules/")
}

func TestEnsureIgnoredCreatesGitignoreWhenMissing(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, EnsureIgnored(&Info{RootPath: dir}))

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".coderag/")
}

func TestEnsureIgnoredIsNoopWhenAlreadyCovered(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".coderag/\n"), 0644))

	require.NoError(t, EnsureIgnored(&Info{RootPath: dir}))

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), ".coderag"))
}

func TestEnsureIgnoredIsNoopForNilInfo(t *testing.T) {
	require.NoError(t, EnsureIgnored(nil))
}
