// Package notify delivers setting change events to observers.
//
// The settings store reports every committed write, every legacy name purged
// when strict mode is entered and every reset. Delivery is synchronous and
// happens in subscription order.
package notify

import (
	"sort"
	"sync"
)

// ChangeType represents the type of setting change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a name was removed from the live table.
	ChangeDelete

	// ChangeReload indicates the whole table was rebuilt from the schema.
	ChangeReload

	// ChangeDeclare indicates a new name was declared at configuration time.
	ChangeDeclare
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	case ChangeDeclare:
		return "declare"
	default:
		return "unknown"
	}
}

// Change represents a setting change event.
type Change struct {
	// Name is the setting name. Empty for reload events.
	Name string

	// Type is the type of change.
	Type ChangeType

	// OldValue is the previous value (nil for declarations).
	OldValue any

	// NewValue is the new value (nil for deletes).
	NewValue any

	// Source identifies where the change came from, for example
	// "cmdline", a file path or a port name.
	Source string
}

// Observer is called when a setting changes.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{observers: make(map[uint64]Observer)}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify calls every observer in subscription order. Observers run outside
// the lock and may subscribe or unsubscribe.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	matched := make([]Observer, len(ids))
	for i, id := range ids {
		matched[i] = n.observers[id]
	}
	n.mu.RUnlock()

	for _, obs := range matched {
		obs(change)
	}
}

// NotifyDeclare is a convenience method for declarations.
func (n *Notifier) NotifyDeclare(name string, value any, source string) {
	n.Notify(Change{
		Name:     name,
		Type:     ChangeDeclare,
		NewValue: value,
		Source:   source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{
		Type:   ChangeReload,
		Source: source,
	})
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// Batch collects the changes of one write and delivers them together once
// the write has committed.
type Batch struct {
	notifier *Notifier
	changes  []Change
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Set adds a set change to the batch.
func (b *Batch) Set(name string, oldValue, newValue any, source string) {
	b.changes = append(b.changes, Change{
		Name:     name,
		Type:     ChangeSet,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
	})
}

// Delete adds a delete change to the batch.
func (b *Batch) Delete(name string, oldValue any, source string) {
	b.changes = append(b.changes, Change{
		Name:     name,
		Type:     ChangeDelete,
		OldValue: oldValue,
		Source:   source,
	})
}

// Commit sends all batched changes to observers in the order they were added.
func (b *Batch) Commit() {
	changes := b.changes
	b.changes = nil

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}
