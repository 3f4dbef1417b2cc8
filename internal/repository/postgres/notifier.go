package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"ecodefill-backend/internal/logger"
)

const (
	channelProfiles      = "ecodefill_profiles"
	channelRegistrations = "ecodefill_registrations"
	channelMachines      = "ecodefill_machines"
)

// Listener is the part of *pq.Listener the change feed uses.
type Listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// notifier fans NOTIFY events out to subscriptions. Each subscription reloads
// its table on its own goroutine; bursts of events coalesce into one reload.
type notifier struct {
	l    Listener
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newNotifier(l Listener) (*notifier, error) {
	for _, ch := range []string{channelProfiles, channelRegistrations, channelMachines} {
		if err := l.Listen(ch); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", ch, err)
		}
	}
	n := &notifier{
		l:    l,
		subs: make(map[string]map[*subscription]struct{}),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go n.run()
	return n, nil
}

func (n *notifier) run() {
	defer close(n.done)
	events := n.l.NotificationChannel()
	for {
		select {
		case <-n.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// pq sends nil after a reconnect; events may have been missed.
			if ev == nil {
				n.signalAll()
				continue
			}
			n.signal(ev.Channel)
		}
	}
}

func (n *notifier) signal(channel string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.subs[channel] {
		s.poke()
	}
}

func (n *notifier) signalAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, set := range n.subs {
		for s := range set {
			s.poke()
		}
	}
}

// subscribe starts a subscription that calls load once immediately and again
// after every event on channel. load returns false to end the subscription.
func (n *notifier) subscribe(ctx context.Context, channel string, load func(ctx context.Context) bool) *subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		n:       n,
		channel: channel,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.wake <- struct{}{}

	n.mu.Lock()
	if n.subs[channel] == nil {
		n.subs[channel] = make(map[*subscription]struct{})
	}
	n.subs[channel][s] = struct{}{}
	n.mu.Unlock()

	go s.run(ctx, load)
	return s
}

func (n *notifier) remove(s *subscription) {
	n.mu.Lock()
	delete(n.subs[s.channel], s)
	n.mu.Unlock()
}

func (n *notifier) close() {
	n.once.Do(func() {
		n.mu.Lock()
		var open []*subscription
		for _, set := range n.subs {
			for s := range set {
				open = append(open, s)
			}
		}
		n.mu.Unlock()
		for _, s := range open {
			s.Unsubscribe()
		}

		close(n.stop)
		<-n.done
		if err := n.l.Close(); err != nil {
			logger.Warn("Failed to close change feed listener", "error", err)
		}
	})
}

type subscription struct {
	n       *notifier
	channel string
	cancel  context.CancelFunc
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run(ctx context.Context, load func(ctx context.Context) bool) {
	defer close(s.done)
	defer s.n.remove(s)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			if ctx.Err() != nil {
				return
			}
			if !load(ctx) {
				return
			}
		}
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

// snapshotLoader adapts a List query to a subscription load func. A failed
// query ends the stream after reporting the error; a cancelled one ends it
// silently.
func snapshotLoader[T any](list func(ctx context.Context) ([]T, error), handler func([]T, error)) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		items, err := list(ctx)
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			handler(nil, err)
			return false
		}
		handler(items, nil)
		return true
	}
}
