package cache

import (
	"context"
	"time"
)

// NullCache stores nothing: every Get misses and every Set succeeds, so a
// runner configured with it renders every request.
type NullCache struct {
	reason string
}

// Disabled returns a null cache that remembers why caching is off.
func Disabled(reason string) *NullCache {
	return &NullCache{reason: reason}
}

// Reason reports why caching was disabled.
func (c *NullCache) Reason() string { return c.reason }

func (c *NullCache) String() string {
	if c.reason == "" {
		return "disabled"
	}
	return "disabled (" + c.reason + ")"
}

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)
