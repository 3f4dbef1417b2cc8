// Package live fans versioned state out to watchers. Watchers never observe a
// version older than one they have already seen.
package live

import "sync"

type listener[T any] struct {
	fn   func(T)
	last uint64
}

// Publisher delivers states to watchers in version order. Watch callbacks run
// while the publisher is locked, so they must not call Watch or a cancel func.
type Publisher[T any] struct {
	mu        sync.Mutex
	published uint64
	nextID    int
	listeners map[int]*listener[T]
}

func NewPublisher[T any]() *Publisher[T] {
	return &Publisher[T]{listeners: make(map[int]*listener[T])}
}

// Publish hands state v to every watcher unless a newer version went out already.
func (p *Publisher[T]) Publish(version uint64, v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if version <= p.published {
		return
	}
	p.published = version
	for _, l := range p.listeners {
		if version > l.last {
			l.last = version
			l.fn(v)
		}
	}
}

// Watch calls fn with the current state right away and again on every newer
// publish until the returned cancel func is called.
func (p *Publisher[T]) Watch(current func() (T, uint64), fn func(T)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, version := current()
	id := p.nextID
	p.nextID++
	p.listeners[id] = &listener[T]{fn: fn, last: version}
	fn(v)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Reset drops every watcher.
func (p *Publisher[T]) Reset() {
	p.mu.Lock()
	p.listeners = make(map[int]*listener[T])
	p.mu.Unlock()
}

func (p *Publisher[T]) Watchers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}
