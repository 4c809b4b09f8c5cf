package cache

import (
	"sync"

	"github.com/rs/zerolog"
)

// Cache holds the state of one consuming scope. All mutation goes through Dispatch,
// which applies Reduce under a single lock; readers see whole entries only.
type Cache[T any] struct {
	state  State[T]
	closed bool
	mu     sync.RWMutex

	// dispatchMu orders reductions together with their notifications
	dispatchMu sync.Mutex

	watchers map[uint64]func(Change[T])
	nextID   uint64
	watchMu  sync.Mutex

	logger zerolog.Logger
}

// New creates an empty cache scoped to ctx
func New[T any](ctx string, logger zerolog.Logger) *Cache[T] {
	return &Cache[T]{
		state:    NewState[T](ctx),
		watchers: make(map[uint64]func(Change[T])),
		logger:   logger,
	}
}

// Dispatch applies intent. Intents dispatched after Close are dropped.
func (c *Cache[T]) Dispatch(intent Intent[T]) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().
			Str("intent", intent.Kind.String()).
			Str("key", intent.Key).
			Msg("dispatch after close dropped")
		return
	}

	prev := c.state
	if IsStale(prev, intent) {
		c.mu.Unlock()
		c.logger.Debug().
			Str("intent", intent.Kind.String()).
			Str("key", intent.Key).
			Str("context", intent.Context).
			Str("current", prev.Context).
			Msg("stale intent dropped")
		return
	}

	next := Reduce(prev, intent)
	c.state = next
	c.mu.Unlock()

	switch intent.Kind {
	case IntentClear:
		if intent.Force || prev.Context != next.Context {
			c.notify(Change[T]{Context: next.Context, Cleared: true})
		}
	default:
		c.notify(Change[T]{Context: next.Context, Key: intent.Key, Entry: next.Entries[intent.Key]})
	}
}

// Read returns the entry for key. It panics with ErrScopeClosed once the cache is closed.
func (c *Cache[T]) Read(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		panic(ErrScopeClosed)
	}
	entry, ok := c.state.Entries[key]
	return entry, ok
}

// Context returns the context the entries belong to
func (c *Cache[T]) Context() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Context
}

// Snapshot returns the current state. The returned map must not be modified.
func (c *Cache[T]) Snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Len returns the number of entries
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.state.Entries)
}

// Closed reports whether the scope has been torn down
func (c *Cache[T]) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Watch registers fn to receive every applied change. The returned function unregisters it.
// fn is called in dispatch order, outside the state lock; it must not block or Dispatch.
func (c *Cache[T]) Watch(fn func(Change[T])) func() {
	c.watchMu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.watchMu.Unlock()

	return func() {
		c.watchMu.Lock()
		delete(c.watchers, id)
		c.watchMu.Unlock()
	}
}

// Watchers returns the number of registered watchers
func (c *Cache[T]) Watchers() int {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	return len(c.watchers)
}

// Close tears down the scope and drops all entries and watchers
func (c *Cache[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.state = NewState[T](c.state.Context)
	c.mu.Unlock()

	c.watchMu.Lock()
	c.watchers = make(map[uint64]func(Change[T]))
	c.watchMu.Unlock()
}

func (c *Cache[T]) notify(change Change[T]) {
	c.watchMu.Lock()
	fns := make([]func(Change[T]), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
