package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/composeviz/pkg/cache"
	"github.com/matzehuels/composeviz/pkg/compose"
	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/observability"
	"github.com/matzehuels/composeviz/pkg/style"
	"github.com/matzehuels/composeviz/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state, so multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → style → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Format: opts.Format}

	loadStart := time.Now()
	doc, files, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Stats.LoadTime = time.Since(loadStart)

	path := ""
	if len(files) > 0 {
		path = files[0]
	}

	buildStart := time.Now()
	g, err := r.Build(ctx, doc, path, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	opts.Logger.Info("built topology",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.BuildTime)

	result.Styled = r.Style(g, opts)

	renderStart := time.Now()
	artifact, hit, err := r.Render(ctx, result.Styled, opts)
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact
	result.CacheHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered output",
		"format", opts.Format,
		"bytes", len(artifact),
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and merges the configuration named by opts. It returns the
// merged document and the files it was read from; for an in-memory
// document the file list holds opts.Path when set.
func (r *Runner) Load(ctx context.Context, opts Options) (doc *compose.Mapping, files []string, err error) {
	r.applyLogger(&opts)

	if opts.Document != nil {
		if opts.Path != "" {
			files = []string{opts.Path}
		}
		doc, err = compose.Decode(opts.Document)
		if err != nil {
			return nil, nil, err
		}
		compose.InferVersion(doc)
		return doc, files, nil
	}

	paths := opts.Files
	if len(paths) == 0 {
		paths = []string{compose.DefaultFile}
	}
	files, err = compose.FindConfigurationFiles(opts.IgnoreOverride, paths...)
	if err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, files)
	start := time.Now()
	doc, err = compose.ReadConfigurations(files...)
	hooks.OnLoadComplete(ctx, files, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}

	opts.Logger.Debug("loaded configuration", "files", files, "version", compose.Version(doc))
	return doc, files, nil
}

// Build constructs the topology graph of doc. path is the file doc was
// read from and anchors relative extends files.
func (r *Runner) Build(ctx context.Context, doc *compose.Mapping, path string, opts Options) (*graph.Graph, error) {
	r.applyLogger(&opts)

	builder := topology.NewBuilder(opts.Flags(), opts.Logger)
	if opts.Loader != nil {
		builder.Loader = opts.Loader
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, path)
	start := time.Now()
	g, err := builder.Build(doc, path)
	if err != nil {
		hooks.OnBuildComplete(ctx, path, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnBuildComplete(ctx, path, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)
	return g, nil
}

// Style returns an annotated copy of g with the include/exclude filter
// applied. g is not modified.
func (r *Runner) Style(g *graph.Graph, opts Options) *graph.Graph {
	r.applyLogger(&opts)

	styled := style.Apply(g, opts.StyleOptions())
	if removed := style.Filter(styled, opts.Include, opts.Exclude); removed > 0 {
		opts.Logger.Debug("filtered services", "removed", removed)
	}
	return styled
}

// Render produces the artifact for a styled graph and reports whether it
// came from the cache. DOT and JSON output are cheap and never cached.
func (r *Runner) Render(ctx context.Context, styled *graph.Graph, opts Options) ([]byte, bool, error) {
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()
	data, hit, err := r.render(ctx, styled, opts)
	hooks.OnRenderComplete(ctx, opts.Format, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, hit, nil
}

func (r *Runner) render(ctx context.Context, styled *graph.Graph, opts Options) ([]byte, bool, error) {
	if opts.Format == FormatJSON {
		data, err := graph.MarshalGraph(styled)
		return data, false, err
	}

	dot := ToDOT(styled)
	if opts.Format == FormatDOT {
		return []byte(dot), false, nil
	}

	key := r.Keyer.ArtifactKey(dot, cache.ArtifactKeyOpts{Format: opts.Format})
	cacheHooks := observability.Cache()
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		cacheHooks.OnCacheHit(ctx, "artifact")
		return data, true, nil
	} else if err != nil {
		opts.Logger.Warn("cache read failed", "error", err)
	}
	cacheHooks.OnCacheMiss(ctx, "artifact")

	data, err := RenderDOT(ctx, dot, opts.Format)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
		opts.Logger.Warn("cache write failed", "error", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
