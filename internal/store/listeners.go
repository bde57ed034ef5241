package store

import "sync"

// listenerSet is the observer registry for change notifications. Listeners
// are invoked in registration order against a snapshot taken at notify
// time, so subscribing or unsubscribing from inside a callback neither
// crashes the iteration nor skips other listeners. A listener unsubscribed
// mid-notification is not invoked for the in-progress notification.
type listenerSet struct {
	mu     sync.Mutex
	nextID uint64
	order  []uint64
	fns    map[uint64]func()
}

func newListenerSet() *listenerSet {
	return &listenerSet{fns: make(map[uint64]func())}
}

// subscribe registers fn and returns its unsubscribe handle.
func (l *listenerSet) subscribe(fn func()) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.order = append(l.order, id)
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
		for i, o := range l.order {
			if o == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// notify invokes every listener registered at the time of the call, once
// each, in registration order.
func (l *listenerSet) notify() {
	l.mu.Lock()
	snapshot := make([]uint64, len(l.order))
	copy(snapshot, l.order)
	l.mu.Unlock()

	for _, id := range snapshot {
		l.mu.Lock()
		fn := l.fns[id] // nil if unsubscribed since the snapshot
		l.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}
