package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/composeviz/pkg/observability"
)

// logHooks reports pipeline, cache and HTTP events to the CLI logger.
type logHooks struct {
	logger *log.Logger
}

// InstallHooks registers hooks that log through the CLI logger.
func (c *CLI) InstallHooks() {
	h := &logHooks{logger: c.Logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnLoadStart(_ context.Context, files []string) {
	h.logger.Debug("loading configuration", "files", files)
}

func (h *logHooks) OnLoadComplete(_ context.Context, files []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "files", files, "error", err)
		return
	}
	h.logger.Debug("loaded configuration", "files", len(files), "duration", d)
}

func (h *logHooks) OnBuildStart(_ context.Context, path string) {
	h.logger.Debug("building graph", "path", path)
}

func (h *logHooks) OnBuildComplete(_ context.Context, path string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "path", path, "error", err)
		return
	}
	h.logger.Debug("built graph", "nodes", nodes, "edges", edges, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("rendering", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("rendered", "format", format, "bytes", size, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, requestID, method, path string) {
	h.logger.Debug("request", "id", requestID, "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, requestID, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "id", requestID, "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.HTTPHooks     = (*logHooks)(nil)
)
