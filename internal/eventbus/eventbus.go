package eventbus

import "sync"

type subscriber struct {
	id int
	fn func()
}

// Notifier implements a callback-list observer registry. Listeners are
// invoked synchronously, in registration order, and never while a state
// mutation is in progress: callers must complete their transition before
// calling Notify. Listeners receive no payload and are expected to pull a
// fresh snapshot from the subject.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a cancellation handle. The handle is
// safe to call more than once.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				break
			}
		}
		n.mu.Unlock()
	}
}

// Notify invokes every registered listener. The subscriber list is copied
// under the lock so listeners may subscribe or unsubscribe re-entrantly.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), len(n.subs))
	for i, s := range n.subs {
		fns[i] = s.fn
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
