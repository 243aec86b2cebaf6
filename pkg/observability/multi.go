package observability

import (
	"context"
	"time"
)

// MultiPipelineHooks forwards pipeline events to every hook in order.
type MultiPipelineHooks []PipelineHooks

func (m MultiPipelineHooks) OnLoadStart(ctx context.Context, files []string) {
	for _, h := range m {
		h.OnLoadStart(ctx, files)
	}
}

func (m MultiPipelineHooks) OnLoadComplete(ctx context.Context, files []string, d time.Duration, err error) {
	for _, h := range m {
		h.OnLoadComplete(ctx, files, d, err)
	}
}

func (m MultiPipelineHooks) OnBuildStart(ctx context.Context, path string) {
	for _, h := range m {
		h.OnBuildStart(ctx, path)
	}
}

func (m MultiPipelineHooks) OnBuildComplete(ctx context.Context, path string, nodes, edges int, d time.Duration, err error) {
	for _, h := range m {
		h.OnBuildComplete(ctx, path, nodes, edges, d, err)
	}
}

func (m MultiPipelineHooks) OnRenderStart(ctx context.Context, format string) {
	for _, h := range m {
		h.OnRenderStart(ctx, format)
	}
}

func (m MultiPipelineHooks) OnRenderComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	for _, h := range m {
		h.OnRenderComplete(ctx, format, size, d, err)
	}
}

// MultiCacheHooks forwards cache events to every hook in order.
type MultiCacheHooks []CacheHooks

func (m MultiCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheHit(ctx, keyType)
	}
}

func (m MultiCacheHooks) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (m MultiCacheHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range m {
		h.OnCacheSet(ctx, keyType, size)
	}
}

// MultiHTTPHooks forwards HTTP events to every hook in order.
type MultiHTTPHooks []HTTPHooks

func (m MultiHTTPHooks) OnRequest(ctx context.Context, requestID, method, path string) {
	for _, h := range m {
		h.OnRequest(ctx, requestID, method, path)
	}
}

func (m MultiHTTPHooks) OnResponse(ctx context.Context, requestID, method, path string, status int, d time.Duration) {
	for _, h := range m {
		h.OnResponse(ctx, requestID, method, path, status, d)
	}
}
