package fxscene

// Signal is a typed event channel. Handlers run synchronously, in
// subscription order, on the caller's goroutine.
//
// Emission iterates over a snapshot of the subscriber list, so handlers may
// subscribe or close subscriptions (including their own) while the signal is
// being emitted. A subscription closed during emission is not invoked
// afterwards, even if it is still in the snapshot.
type Signal[T any] struct {
	entries []signalEntry[T]
}

type signalEntry[T any] struct {
	sub *Subscription
	fn  func(T)
}

// Subscription is the handle returned by Signal.Subscribe. Closing it
// unsubscribes the handler. When the node owning the signal is destroyed,
// every remaining subscription is closed for the subscriber.
type Subscription struct {
	closed bool
	detach func(*Subscription)
}

// Close unsubscribes. It is safe to call more than once and on a nil handle.
func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	if s.detach != nil {
		s.detach(s)
		s.detach = nil
	}
}

// Active reports whether the subscription is still attached.
func (s *Subscription) Active() bool {
	return s != nil && !s.closed
}

// Subscribe registers fn and returns its handle.
func (sig *Signal[T]) Subscribe(fn func(T)) *Subscription {
	sub := &Subscription{}
	sub.detach = sig.remove
	// Copy on write: an emission in progress keeps its own snapshot.
	entries := make([]signalEntry[T], len(sig.entries), len(sig.entries)+1)
	copy(entries, sig.entries)
	sig.entries = append(entries, signalEntry[T]{sub: sub, fn: fn})
	return sub
}

// Emit calls every active handler with v.
func (sig *Signal[T]) Emit(v T) {
	snapshot := sig.entries
	for _, e := range snapshot {
		if e.sub.closed {
			continue
		}
		e.fn(v)
	}
}

// Len returns the number of active subscriptions.
func (sig *Signal[T]) Len() int {
	return len(sig.entries)
}

func (sig *Signal[T]) remove(sub *Subscription) {
	entries := make([]signalEntry[T], 0, len(sig.entries))
	for _, e := range sig.entries {
		if e.sub != sub {
			entries = append(entries, e)
		}
	}
	sig.entries = entries
}

// closeAll closes every remaining subscription and returns how many there
// were.
func (sig *Signal[T]) closeAll() int {
	n := len(sig.entries)
	for _, e := range sig.entries {
		e.sub.closed = true
		e.sub.detach = nil
	}
	sig.entries = nil
	return n
}
