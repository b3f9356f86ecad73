package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/coderag/docrag/internal/apperrors"
)

// ProviderType selects which embedder backend to construct.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderStatic ProviderType = "static"
)

// Factory lazily constructs and caches a single shared Embedder, matching
// spec.md's "embedder initializes once, lazily, on first search or ingest
// call" requirement. Construction is attempted at most once: after a failed
// init, every later call to Get returns the same error without redialing
// Ollama.
type Factory struct {
	provider ProviderType
	model    string
	host     string
	cacheSize int

	once     sync.Once
	embedder Embedder
	initErr  error
	breaker  *apperrors.CircuitBreaker
}

// NewFactory builds a Factory for the given provider/model. Provider and
// model may be overridden by the DOCRAG_EMBEDDER and DOCRAG_EMBED_MODEL
// environment variables.
func NewFactory(provider ProviderType, model, host string) *Factory {
	if envProvider := os.Getenv("DOCRAG_EMBEDDER"); envProvider != "" {
		provider = ProviderType(strings.ToLower(envProvider))
	}
	if envModel := os.Getenv("DOCRAG_EMBED_MODEL"); envModel != "" {
		model = envModel
	}
	return &Factory{
		provider:  provider,
		model:     model,
		host:      host,
		cacheSize: DefaultEmbeddingCacheSize,
		breaker:   apperrors.NewCircuitBreaker("embedder-init"),
	}
}

// Get returns the shared embedder, constructing it on first call. If the
// circuit breaker is open it returns apperrors.ErrCircuitOpen; otherwise a
// failed construction's error is returned on that call and every later one.
func (f *Factory) Get(ctx context.Context) (Embedder, error) {
	if f.breaker.State() == apperrors.StateOpen {
		return nil, apperrors.ErrCircuitOpen
	}

	f.once.Do(func() {
		f.initErr = f.breaker.Execute(func() error {
			e, err := f.build(ctx)
			if err != nil {
				return err
			}
			f.embedder = e
			return nil
		})
	})

	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.embedder, nil
}

func (f *Factory) build(ctx context.Context) (Embedder, error) {
	var inner Embedder

	switch f.provider {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama, "":
		e, err := NewOllamaEmbedder(ctx, OllamaConfig{Host: f.host, Model: f.model})
		if err != nil {
			if isFallbackDisabled() {
				return nil, fmt.Errorf("ollama unavailable and static fallback disabled: %w", err)
			}
			inner = NewStaticEmbedder()
		} else {
			inner = e
		}
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", f.provider)
	}

	if isCacheDisabled() {
		return inner, nil
	}
	return NewCachedEmbedder(inner, f.cacheSize), nil
}

func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("DOCRAG_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

func isFallbackDisabled() bool {
	v := strings.ToLower(os.Getenv("DOCRAG_EMBED_NO_FALLBACK"))
	return v == "true" || v == "1" || v == "on"
}
