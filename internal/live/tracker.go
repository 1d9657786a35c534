// Package live provides observable query results over the local store.
//
// Repositories report which tables a write touched through Tracker.Invalidate.
// Every Query built on those tables re-runs for its observers, so a list
// screen stays current without polling.
package live

import "sync"

// Tracker fans table invalidations out to subscribers.
type Tracker struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]subscription
}

type subscription struct {
	tables map[string]struct{}
	notify func()
}

func NewTracker() *Tracker {
	return &Tracker{subs: make(map[uint64]subscription)}
}

// Subscribe registers notify for writes to any of tables and returns a
// function that removes the registration. notify runs on the writer's
// goroutine and must not block.
func (t *Tracker) Subscribe(notify func(), tables ...string) (unsubscribe func()) {
	set := make(map[string]struct{}, len(tables))
	for _, name := range tables {
		set[name] = struct{}{}
	}

	t.mu.Lock()
	id := t.next
	t.next++
	t.subs[id] = subscription{tables: set, notify: notify}
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Invalidate notifies every subscriber watching at least one of tables.
func (t *Tracker) Invalidate(tables ...string) {
	t.mu.Lock()
	var hit []func()
	for _, s := range t.subs {
		for _, name := range tables {
			if _, ok := s.tables[name]; ok {
				hit = append(hit, s.notify)
				break
			}
		}
	}
	t.mu.Unlock()

	for _, fn := range hit {
		fn()
	}
}

// Subscribers returns the number of active registrations.
func (t *Tracker) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
