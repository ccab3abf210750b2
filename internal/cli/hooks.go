package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks writes observability events to the debug log.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnAgeStart(_ context.Context, width, height int) {
	h.logger.Debug("aging", "width", width, "height", height)
}

func (h logHooks) OnStageComplete(_ context.Context, stage string, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("stage failed", "stage", stage, "duration", dur, "error", err)
		return
	}
	h.logger.Debug("stage done", "stage", stage, "duration", dur)
}

func (h logHooks) OnAgeComplete(_ context.Context, crackLength float64, dur time.Duration, err error) {
	h.logger.Debug("aging done", "crack_length", crackLength, "duration", dur, "error", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// OnImageDone reports failures only; the dataset package logs successes.
func (h logHooks) OnImageDone(_ context.Context, index int, source string, _ bool, err error) {
	if err != nil {
		h.logger.Warn("image failed", "index", index, "source", source, "error", err)
	}
}

func (h logHooks) OnRequest(_ context.Context, requestID, method, path string) {
	h.logger.Debug("request", "id", requestID, "method", method, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, requestID, method, path string, status int, dur time.Duration) {
	h.logger.Info("response", "id", requestID, "method", method, "path", path, "status", status, "duration", dur)
}

func (h logHooks) OnError(_ context.Context, requestID, method, path string, err error) {
	h.logger.Warn("request error", "id", requestID, "method", method, "path", path, "error", err)
}
