package cache

// NewState returns an empty state for ctx
func NewState[T any](ctx string) State[T] {
	return State[T]{
		Context: ctx,
		Entries: make(map[string]Entry[T]),
	}
}

// Reduce applies intent to state and returns the next state.
// The input state is never modified; the entries map is copied on write.
// Update intents whose context does not match the state's context are stale and
// return the state unchanged.
func Reduce[T any](state State[T], intent Intent[T]) State[T] {
	switch intent.Kind {
	case IntentClear:
		if !intent.Force && intent.Context == state.Context {
			return state
		}
		return NewState[T](intent.Context)

	case IntentStartFetch:
		if intent.Context != state.Context {
			return state
		}
		return withEntry(state, intent.Key, Entry[T]{Status: Fetching})

	case IntentComplete:
		if intent.Context != state.Context {
			return state
		}
		data := intent.Data
		return withEntry(state, intent.Key, Entry[T]{Status: Fetched, Data: &data})

	case IntentFail:
		if intent.Context != state.Context {
			return state
		}
		return withEntry(state, intent.Key, Entry[T]{Status: FetchFailed})

	default:
		return state
	}
}

// IsStale reports whether intent would be dropped by Reduce for a context mismatch
func IsStale[T any](state State[T], intent Intent[T]) bool {
	return intent.Kind != IntentClear && intent.Context != state.Context
}

func withEntry[T any](state State[T], key string, entry Entry[T]) State[T] {
	entries := make(map[string]Entry[T], len(state.Entries)+1)
	for k, v := range state.Entries {
		entries[k] = v
	}
	entries[key] = entry
	return State[T]{Context: state.Context, Entries: entries}
}
