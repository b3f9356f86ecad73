package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coderag/docrag/internal/ann"
)

// ProjectType represents the type of project detected at the crawl/ingest
// root, used only to bias default include paths.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config is the complete docrag configuration, loaded from defaults, a
// user-global file, a project file, and environment overrides in that
// order of increasing precedence.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Crawler     CrawlerConfig     `yaml:"crawler" json:"crawler"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// PathsConfig configures which local paths to include/exclude when
// ingesting a project's own docs alongside crawled content.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures chunking, the ANN index, and hybrid fusion.
// Every tunable named by the reference hybrid-search and ANN designs is
// operator-configurable here, defaulting to their reference values.
type SearchConfig struct {
	// VectorWeight and KeywordWeight are the hybrid fusion weights; the
	// reference combination is 0.7/0.3.
	VectorWeight  float64 `yaml:"vector_weight" json:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// BM25K1 and BM25B are the BM25 term-frequency saturation and length
	// normalization constants; reference defaults 1.2/0.75.
	BM25K1 float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b" json:"bm25_b"`

	ChunkSize    int `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	MaxResults   int `yaml:"max_results" json:"max_results"`

	// ANN carries the HNSW-like index's construction/search parameters.
	ANN ANNConfig `yaml:"ann" json:"ann"`
}

// ANNConfig mirrors ann.Params for YAML/JSON configurability.
type ANNConfig struct {
	M              int     `yaml:"m" json:"m"`
	M0             int     `yaml:"m0" json:"m0"`
	EfConstruction int     `yaml:"ef_construction" json:"ef_construction"`
	EfSearch       int     `yaml:"ef_search" json:"ef_search"`
	ScaleFactor    float64 `yaml:"scale_factor" json:"scale_factor"`
	MaxLevel       int     `yaml:"max_level" json:"max_level"`
	Metric         string  `yaml:"metric" json:"metric"`
}

// ToParams converts the YAML-facing ANNConfig into ann.Params.
func (a ANNConfig) ToParams() ann.Params {
	p := ann.DefaultParams()
	if a.M > 0 {
		p.M = a.M
	}
	if a.M0 > 0 {
		p.M0 = a.M0
	}
	if a.EfConstruction > 0 {
		p.EfConstruction = a.EfConstruction
	}
	if a.EfSearch > 0 {
		p.EfSearch = a.EfSearch
	}
	if a.ScaleFactor > 0 {
		p.ScaleFactor = a.ScaleFactor
	}
	if a.MaxLevel > 0 {
		p.MaxLevel = a.MaxLevel
	}
	switch strings.ToLower(a.Metric) {
	case "l2":
		p.Metric = ann.L2
	case "cosine", "":
		p.Metric = ann.Cosine
	}
	return p
}

func annConfigFromParams(p ann.Params) ANNConfig {
	metric := "cosine"
	if p.Metric == ann.L2 {
		metric = "l2"
	}
	return ANNConfig{
		M: p.M, M0: p.M0, EfConstruction: p.EfConstruction, EfSearch: p.EfSearch,
		ScaleFactor: p.ScaleFactor, MaxLevel: p.MaxLevel, Metric: metric,
	}
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
}

// CrawlerConfig configures the polite BFS web crawler's defaults.
type CrawlerConfig struct {
	MaxPages           int      `yaml:"max_pages" json:"max_pages"`
	MaxDepth           int      `yaml:"max_depth" json:"max_depth"`
	ConcurrentRequests int      `yaml:"concurrent_requests" json:"concurrent_requests"`
	DelayMs            int      `yaml:"delay_ms" json:"delay_ms"`
	IncludePatterns    []string `yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns    []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// PerformanceConfig configures resource usage tuning.
type PerformanceConfig struct {
	IndexWorkers int    `yaml:"index_workers" json:"index_workers"`
	Quantization string `yaml:"quantization" json:"quantization"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// defaultExcludePatterns are always excluded from local path ingestion.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
}

// NewConfig creates a new Config with the reference default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Search: SearchConfig{
			VectorWeight:  0.7,
			KeywordWeight: 0.3,
			BM25K1:        1.2,
			BM25B:         0.75,
			ChunkSize:     1500,
			ChunkOverlap:  200,
			MaxResults:    20,
			ANN:           annConfigFromParams(ann.DefaultParams()),
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "", // empty triggers auto-detection: Ollama -> static
			Model:      "nomic-embed-text",
			Dimensions: 0, // auto-detect from embedder
			BatchSize:  32,
			OllamaHost: "",
			CacheSize:  1000,
		},
		Crawler: CrawlerConfig{
			MaxPages:           100,
			MaxDepth:           3,
			ConcurrentRequests: 2,
			DelayMs:            250,
		},
		Performance: PerformanceConfig{
			IndexWorkers: runtime.NumCPU(),
			Quantization: "scalar8",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docrag", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docrag", "config.yaml")
	}
	return filepath.Join(home, ".config", "docrag", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for a project directory, applying, in order of
// increasing precedence: hardcoded defaults, the user/global config
// (~/.config/docrag/config.yaml), the project config (.docrag.yaml in dir),
// then DOCRAG_* environment variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile attempts to load configuration from .docrag.yaml or .docrag.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".docrag.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".docrag.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.VectorWeight != 0 {
		c.Search.VectorWeight = other.Search.VectorWeight
	}
	if other.Search.KeywordWeight != 0 {
		c.Search.KeywordWeight = other.Search.KeywordWeight
	}
	if other.Search.BM25K1 != 0 {
		c.Search.BM25K1 = other.Search.BM25K1
	}
	if other.Search.BM25B != 0 {
		c.Search.BM25B = other.Search.BM25B
	}
	if other.Search.ChunkSize != 0 {
		c.Search.ChunkSize = other.Search.ChunkSize
	}
	if other.Search.ChunkOverlap != 0 {
		c.Search.ChunkOverlap = other.Search.ChunkOverlap
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.ANN.M != 0 {
		c.Search.ANN.M = other.Search.ANN.M
	}
	if other.Search.ANN.M0 != 0 {
		c.Search.ANN.M0 = other.Search.ANN.M0
	}
	if other.Search.ANN.EfConstruction != 0 {
		c.Search.ANN.EfConstruction = other.Search.ANN.EfConstruction
	}
	if other.Search.ANN.EfSearch != 0 {
		c.Search.ANN.EfSearch = other.Search.ANN.EfSearch
	}
	if other.Search.ANN.ScaleFactor != 0 {
		c.Search.ANN.ScaleFactor = other.Search.ANN.ScaleFactor
	}
	if other.Search.ANN.MaxLevel != 0 {
		c.Search.ANN.MaxLevel = other.Search.ANN.MaxLevel
	}
	if other.Search.ANN.Metric != "" {
		c.Search.ANN.Metric = other.Search.ANN.Metric
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Crawler.MaxPages != 0 {
		c.Crawler.MaxPages = other.Crawler.MaxPages
	}
	if other.Crawler.MaxDepth != 0 {
		c.Crawler.MaxDepth = other.Crawler.MaxDepth
	}
	if other.Crawler.ConcurrentRequests != 0 {
		c.Crawler.ConcurrentRequests = other.Crawler.ConcurrentRequests
	}
	if other.Crawler.DelayMs != 0 {
		c.Crawler.DelayMs = other.Crawler.DelayMs
	}
	if len(other.Crawler.IncludePatterns) > 0 {
		c.Crawler.IncludePatterns = other.Crawler.IncludePatterns
	}
	if len(other.Crawler.ExcludePatterns) > 0 {
		c.Crawler.ExcludePatterns = other.Crawler.ExcludePatterns
	}

	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.Quantization != "" {
		c.Performance.Quantization = other.Performance.Quantization
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies DOCRAG_* environment variable overrides, the
// highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCRAG_VECTOR_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("DOCRAG_KEYWORD_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.KeywordWeight = w
		}
	}
	if v := os.Getenv("DOCRAG_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("DOCRAG_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCRAG_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCRAG_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCRAG_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("DOCRAG_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// DetectProjectType detects the project type at dir based on marker files,
// used only to bias default doc-path discovery.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) || fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	return ProjectTypeUnknown
}

// DiscoverDocsDirs discovers documentation directories in the project.
func DiscoverDocsDirs(dir string) []string {
	commonDocDirs := []string{"docs", "doc"}
	commonDocFiles := []string{"README.md", "readme.md", "README.markdown"}

	var found []string
	for _, d := range commonDocDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}
	for _, f := range commonDocFiles {
		if fileExists(filepath.Join(dir, f)) {
			found = append(found, f)
			break
		}
	}
	return found
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (p ProjectType) String() string { return string(p) }

func (p ProjectType) IsKnown() bool { return p != ProjectTypeUnknown }

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		return fmt.Errorf("vector_weight must be between 0 and 1, got %f", c.Search.VectorWeight)
	}
	if c.Search.KeywordWeight < 0 || c.Search.KeywordWeight > 1 {
		return fmt.Errorf("keyword_weight must be between 0 and 1, got %f", c.Search.KeywordWeight)
	}
	sum := c.Search.VectorWeight + c.Search.KeywordWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("vector_weight + keyword_weight must equal 1.0, got %.2f", sum)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be non-negative, got %d", c.Search.ChunkSize)
	}

	if c.Embeddings.Provider != "" {
		validProviders := map[string]bool{"static": true, "ollama": true}
		if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'ollama', 'static', or empty (auto-detect), got %s", c.Embeddings.Provider)
		}
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, returning nil, nil if
// it doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
