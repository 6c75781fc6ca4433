package canvas

import (
	"slices"
	"sync"

	"topoview/internal/domain"
)

// Lookup holds the currently selected inventory object for property and menu
// panels. It has a single writer, the Broadcaster, and may be read from any
// goroutine.
type Lookup struct {
	mu      sync.RWMutex
	current *domain.ObjectRef
	subs    []lookupSub
	nextSub uint64
}

type lookupSub struct {
	id uint64
	fn func(domain.ObjectRef)
}

// NewLookup creates an empty lookup
func NewLookup() *Lookup {
	return &Lookup{}
}

// Current returns the last published object
func (l *Lookup) Current() (domain.ObjectRef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return domain.ObjectRef{}, false
	}
	return *l.current, true
}

// Publish replaces the current object and notifies subscribers
func (l *Lookup) Publish(ref domain.ObjectRef) {
	l.mu.Lock()
	l.current = &ref
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ref)
	}
}

// Subscribe registers fn for published objects. Subscribers are notified in
// subscription order. The returned function unsubscribes.
func (l *Lookup) Subscribe(fn func(domain.ObjectRef)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSub++
	id := l.nextSub
	l.subs = append(l.subs, lookupSub{id: id, fn: fn})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.subs = slices.DeleteFunc(l.subs, func(s lookupSub) bool { return s.id == id })
	}
}

// Broadcaster republishes single-object selections of a scene into a Lookup.
// Any other selection leaves the lookup untouched.
type Broadcaster struct {
	scene  *Scene
	lookup *Lookup
	id     ListenerID
}

// NewBroadcaster attaches to scene's selection
func NewBroadcaster(scene *Scene, lookup *Lookup) *Broadcaster {
	b := &Broadcaster{scene: scene, lookup: lookup}
	b.id = scene.AddSelectionListener(b.onSelection)
	return b
}

// Lookup returns the lookup being written
func (b *Broadcaster) Lookup() *Lookup { return b.lookup }

// Close detaches from the scene
func (b *Broadcaster) Close() {
	b.scene.RemoveSelectionListener(b.id)
}

func (b *Broadcaster) onSelection(ev SelectionChanged) {
	if len(ev.Current) != 1 {
		return
	}
	if ov, ok := ev.Current[0].(domain.ObjectVertex); ok {
		b.lookup.Publish(ov.Ref)
	}
}
