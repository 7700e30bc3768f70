package session

import (
	"sync"
	"time"
)

type EventKind string

const (
	EventLogin          EventKind = "login"
	EventLogout         EventKind = "logout"
	EventProfileUpdated EventKind = "profile_updated"
)

// Event announces an auth state change for one browser.
type Event struct {
	Kind   EventKind
	Client string
	At     time.Time
}

type subscriber struct {
	id int
	fn func(Event)
}

// Notifier delivers events synchronously to subscribers in the order they
// subscribed.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs []subscriber
}

func NewNotifier() *Notifier { return &Notifier{} }

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	n.next++
	id := n.next
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Notifier) Publish(e Event) {
	n.mu.RLock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
