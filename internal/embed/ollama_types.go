package embed

import "time"

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	Host            string
	Model           string
	FallbackModels  []string
	BatchSize       int
	Timeout         time.Duration
	MaxRetries      int
	SkipHealthCheck bool
	Dimensions      int
	ProgressFunc    func(completed, total int)
}

// OllamaEmbedRequest is the /api/embed request body.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// OllamaEmbedResponse is the /api/embed response body.
type OllamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelInfo describes one model entry from /api/tags.
type OllamaModelInfo struct {
	Name string `json:"name"`
}

// OllamaModelListResponse is the /api/tags response body.
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
)

var FallbackOllamaModels = []string{"mxbai-embed-large", "all-minilm"}
