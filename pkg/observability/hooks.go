// Package observability lets an application watch aging runs, cache
// traffic, dataset preprocessing and HTTP requests without the libraries
// importing a logging or metrics backend.
//
// Each event family has a hook interface, a no-op implementation and a
// global slot. Applications register hooks once at startup; libraries read
// the current hooks on every event:
//
//	observability.SetPipelineHooks(myHooks{})
//	...
//	observability.Pipeline().OnAgeStart(ctx, w, h)
//
// Registration is safe for concurrent use, but hooks registered while events
// are in flight may miss some of them.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// PipelineHooks receives events from the aging pipeline.
type PipelineHooks interface {
	// OnAgeStart fires before the first stage runs on a w×h image.
	OnAgeStart(ctx context.Context, width, height int)

	// OnStageComplete fires after each stage (sepia, stains, cracks, contrast).
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnAgeComplete fires once per run with the traced crack length.
	OnAgeComplete(ctx context.Context, crackLength float64, duration time.Duration, err error)
}

// CacheHooks receives artifact cache traffic. keyType names the kind of
// entry, e.g. "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// DatasetHooks receives events from batch preprocessing.
type DatasetHooks interface {
	// OnImageDone fires after each source image, whether it succeeded or not.
	OnImageDone(ctx context.Context, index int, source string, cached bool, err error)
}

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, requestID, method, path string)
	OnResponse(ctx context.Context, requestID, method, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, requestID, method, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnAgeStart(context.Context, int, int)                          {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnAgeComplete(context.Context, float64, time.Duration, error)  {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopDatasetHooks struct{}

func (NoopDatasetHooks) OnImageDone(context.Context, int, string, bool, error) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds the registered hooks of one family, falling back to a no-op.
type slot[T any] struct {
	p    atomic.Pointer[T]
	noop T
}

func (s *slot[T]) get() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return s.noop
}

// set registers h. A nil h is ignored.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.p.Store(&h)
}

var (
	pipelineSlot = slot[PipelineHooks]{noop: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{noop: NoopCacheHooks{}}
	datasetSlot  = slot[DatasetHooks]{noop: NoopDatasetHooks{}}
	httpSlot     = slot[HTTPHooks]{noop: NoopHTTPHooks{}}
)

func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }
func SetCacheHooks(h CacheHooks)       { cacheSlot.set(h) }
func SetDatasetHooks(h DatasetHooks)   { datasetSlot.set(h) }
func SetHTTPHooks(h HTTPHooks)         { httpSlot.set(h) }

func Pipeline() PipelineHooks { return pipelineSlot.get() }
func Cache() CacheHooks       { return cacheSlot.get() }
func Dataset() DatasetHooks   { return datasetSlot.get() }
func HTTP() HTTPHooks         { return httpSlot.get() }

// Reset restores every family to its no-op hooks. Tests use it to undo
// registrations.
func Reset() {
	pipelineSlot.p.Store(nil)
	cacheSlot.p.Store(nil)
	datasetSlot.p.Store(nil)
	httpSlot.p.Store(nil)
}
