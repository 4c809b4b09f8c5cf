package ws

import (
	"solexplorer/internal/cache"
)

// Method names of the watch protocol
const (
	MethodWatch        = "watch"
	MethodUnwatch      = "unwatch"
	MethodEntryChanged = "entryChanged"
)

// EntryChanged is the params object of an entryChanged notification.
// Cleared is set when the whole feature cache was reset for a new context.
type EntryChanged struct {
	Watch   string      `json:"watch"`
	Feature string      `json:"feature"`
	Key     string      `json:"key"`
	Context string      `json:"context"`
	Cleared bool        `json:"cleared,omitempty"`
	Entry   interface{} `json:"entry,omitempty"`
}

// Source streams the changes of one feature's entries
type Source interface {
	// Watch calls fn for every change of key, and for every clear. fn must not block.
	Watch(key string, fn func(EntryChanged)) (cancel func())
}

type cacheSource[T any] struct {
	feature string
	cache   *cache.Cache[T]
}

// CacheSource exposes a feature cache as a Source
func CacheSource[T any](feature string, c *cache.Cache[T]) Source {
	return &cacheSource[T]{feature: feature, cache: c}
}

func (s *cacheSource[T]) Watch(key string, fn func(EntryChanged)) func() {
	return s.cache.Watch(func(ch cache.Change[T]) {
		if ch.Cleared {
			fn(EntryChanged{Feature: s.feature, Key: key, Context: ch.Context, Cleared: true})
			return
		}
		if ch.Key != key {
			return
		}
		fn(EntryChanged{Feature: s.feature, Key: key, Context: ch.Context, Entry: ch.Entry})
	})
}
