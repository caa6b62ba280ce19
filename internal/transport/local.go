package transport

import "sync"

// LocalBus is an in-process transport. Publish delivers synchronously to
// every subscriber, including the publisher's own.
type LocalBus struct {
	mu     sync.RWMutex
	subs   subscribers
	closed bool
}

// NewLocalBus creates an open bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(data []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	fns := b.subs.snapshot()
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(append([]byte(nil), data...))
	}
	return nil
}

func (b *LocalBus) Subscribe(fn Receiver) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.subs.add(fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs.remove(id)
	}
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = subscribers{}
	return nil
}
