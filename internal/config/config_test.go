package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.InDelta(t, 0.7, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.KeywordWeight, 1e-9)
	assert.InDelta(t, 1.2, cfg.Search.BM25K1, 1e-9)
	assert.InDelta(t, 0.75, cfg.Search.BM25B, 1e-9)
	assert.Equal(t, 1500, cfg.Search.ChunkSize)
	assert.Equal(t, 16, cfg.Search.ANN.M)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestConfigSearchWeightsSumToOne(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadNoConfigFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search.VectorWeight, cfg.Search.VectorWeight)
}

func TestLoadYamlFileOverridesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	content := "search:\n  max_results: 50\n  vector_weight: 0.8\n  keyword_weight: 0.2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docrag.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.InDelta(t, 0.8, cfg.Search.VectorWeight, 1e-9)
}

func TestLoadYmlExtensionIsRecognized(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docrag.yml"), []byte("search:\n  max_results: 7\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}

func TestLoadInvalidYamlReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docrag.yaml"), []byte("search: [this is not a map"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsWeightsNotSummingToOne(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docrag.yaml"), []byte("search:\n  vector_weight: 0.9\n  keyword_weight: 0.9\n"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestDetectProjectTypeGoMod(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644))
	assert.Equal(t, ProjectTypeGo, DetectProjectType(dir))
}

func TestDetectProjectTypePackageJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644))
	assert.Equal(t, ProjectTypeNode, DetectProjectType(dir))
}

func TestDetectProjectTypePriorityGoOverNode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644))
	assert.Equal(t, ProjectTypeGo, DetectProjectType(dir))
}

func TestDetectProjectTypeNoMarkersReturnsUnknown(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, ProjectTypeUnknown, DetectProjectType(dir))
	assert.False(t, ProjectTypeUnknown.IsKnown())
}

func TestDiscoverDocsDirsFindsDocDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0644))

	found := DiscoverDocsDirs(dir)
	assert.Contains(t, found, "docs")
	assert.Contains(t, found, "README.md")
}

func TestLoadEnvVarOverridesWeights(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DOCRAG_VECTOR_WEIGHT", "0.6")
	t.Setenv("DOCRAG_KEYWORD_WEIGHT", "0.4")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.4, cfg.Search.KeywordWeight, 1e-9)
}

func TestLoadEnvVarOverridesLogLevel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DOCRAG_LOG_LEVEL", "warn")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestLoadEnvVarEmptyStringDoesNotOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DOCRAG_LOG_LEVEL", "")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestGetUserConfigPathRespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	assert.Equal(t, "/custom/xdg/docrag/config.yaml", GetUserConfigPath())
}

func TestUserConfigExistsFalseWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, UserConfigExists())
}

func TestLoadUserConfigOverridesDefaults(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "docrag"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "docrag", "config.yaml"), []byte("search:\n  max_results: 99\n"), 0644))

	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Search.MaxResults)
}

func TestLoadProjectConfigOverridesUserConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "docrag"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "docrag", "config.yaml"), []byte("search:\n  max_results: 99\n"), 0644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docrag.yaml"), []byte("search:\n  max_results: 5\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}
