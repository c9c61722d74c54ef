package stores

import "sync"

// notifier fans table change signals out to subscribers. It also remembers
// the last seen version of every table so a change observed twice, once by
// the writer and once by the poller, is signalled once.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[Table]map[int]chan struct{}
	seen   map[Table]int64
}

func newNotifier() *notifier {
	return &notifier{
		subs: make(map[Table]map[int]chan struct{}),
		seen: make(map[Table]int64),
	}
}

func (n *notifier) subscribe(table Table) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
	if n.subs[table] == nil {
		n.subs[table] = make(map[int]chan struct{})
	}
	n.subs[table][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[table][id]; ok {
				delete(n.subs[table], id)
				close(ch)
			}
		})
	}
}

// publish signals every subscriber of table without blocking. A subscriber
// with a pending signal keeps just that one.
func (n *notifier) publish(table Table) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// advance records versions and, when publish is set, signals every table
// whose version moved past the last one seen. A table seen for the first
// time only sets the baseline. Versions never decrease, so an older reading
// that arrives late is ignored.
func (n *notifier) advance(versions map[Table]int64, publish bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for table, version := range versions {
		last, ok := n.seen[table]
		if ok && version <= last {
			continue
		}
		n.seen[table] = version
		if !ok || !publish {
			continue
		}
		for _, ch := range n.subs[table] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// active reports whether anyone is subscribed.
func (n *notifier) active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, subs := range n.subs {
		if len(subs) > 0 {
			return true
		}
	}
	return false
}

// closeAll closes every subscription; used when the store shuts down.
func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for table, subs := range n.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(n.subs, table)
	}
}
