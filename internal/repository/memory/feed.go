package memory

import (
	"context"
	"sync"
)

// feed fans change signals out to subscribers. Each subscriber owns a goroutine
// that reloads and delivers a full snapshot; pending signals coalesce.
type feed struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[*subscriber]struct{})}
}

type subscriber struct {
	f      *feed
	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (f *feed) subscribe(ctx context.Context, deliver func()) *subscriber {
	s := &subscriber{
		f:      f,
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	// initial snapshot
	s.notify <- struct{}{}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	go s.run(ctx, deliver)
	return s
}

func (f *feed) broadcast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

func (s *subscriber) run(ctx context.Context, deliver func()) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-s.notify:
			select {
			case <-s.stop:
				return
			default:
			}
			deliver()
		}
	}
}

// Unsubscribe must not be called from inside the subscriber's own handler.
func (s *subscriber) Unsubscribe() {
	s.once.Do(func() {
		s.f.mu.Lock()
		delete(s.f.subs, s)
		s.f.mu.Unlock()
		close(s.stop)
	})
	<-s.done
}
