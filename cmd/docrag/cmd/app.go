package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/config"
	"github.com/coderag/docrag/internal/embed"
	"github.com/coderag/docrag/internal/logging"
	"github.com/coderag/docrag/internal/project"
	"github.com/coderag/docrag/internal/store"
)

// app bundles the store/config/embedder/logger every subcommand needs,
// wired once per invocation the same way regardless of whether the caller
// is the MCP stdio server or a direct CLI operation.
type app struct {
	store    *store.Store
	cfg      *config.Config
	embedder embed.Embedder
	info     *project.Info
	logger   *slog.Logger
	cleanup  func()
}

func openApp() (*app, error) {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	storePath, info := project.StorePath(wd)
	if err := project.EnsureIgnored(info); err != nil {
		logger.Warn("failed to update ignore file", "error", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	st := store.New(storePath, cfg.Embeddings.Dimensions)
	if err := st.Load(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load vector store: %w", err)
	}
	st.SetQuantization(parseQuantization(cfg.Performance.Quantization))

	factory := embed.NewFactory(embed.ProviderType(cfg.Embeddings.Provider), cfg.Embeddings.Model, cfg.Embeddings.OllamaHost)

	return &app{
		store:    st,
		cfg:      cfg,
		embedder: &lazyEmbedder{factory: factory},
		info:     info,
		logger:   logger,
		cleanup:  cleanup,
	}, nil
}

// parseQuantization maps the performance.quantization config string onto
// the ann quantization mode, defaulting to no quantization for unknown or
// empty values rather than failing startup over a config typo.
func parseQuantization(s string) ann.QuantizationMethod {
	switch s {
	case "scalar8":
		return ann.QuantizeScalar8Bit
	default:
		return ann.QuantizeNone
	}
}

// buildANNIndexForCLI rebuilds an in-memory ANN index from the store's
// current entries, mirroring internal/mcpserver's per-query rebuild so the
// CLI search path exercises the identical ranking as the MCP tool.
func buildANNIndexForCLI(a *app) *ann.Index {
	idx := ann.New(a.cfg.Search.ANN.ToParams(), rand.New(rand.NewSource(1)))
	for _, e := range a.store.Entries() {
		_ = idx.Add(e.ID, e.Vector.Values)
	}
	return idx
}

// lazyEmbedder defers constructing the real embedder to the first call,
// matching spec.md's "embedder initialized lazily on first use" requirement
// without forcing the store's configured dimension to depend on it.
type lazyEmbedder struct {
	factory *embed.Factory
}

func (l *lazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.factory.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (l *lazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.factory.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

func (l *lazyEmbedder) Dimensions() int {
	e, err := l.factory.Get(context.Background())
	if err != nil {
		return embed.DefaultDimensions
	}
	return e.Dimensions()
}

func (l *lazyEmbedder) ModelName() string {
	e, err := l.factory.Get(context.Background())
	if err != nil {
		return ""
	}
	return e.ModelName()
}

func (l *lazyEmbedder) Available(ctx context.Context) bool {
	e, err := l.factory.Get(ctx)
	if err != nil {
		return false
	}
	return e.Available(ctx)
}

func (l *lazyEmbedder) Close() error {
	e, err := l.factory.Get(context.Background())
	if err != nil {
		return nil
	}
	return e.Close()
}
