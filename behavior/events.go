package behavior

// EventKind identifies what happened to an actor.
type EventKind uint8

const (
	EventFloorChanged EventKind = iota + 1
	EventAttacked
	EventStateChanged
)

// Event is published on a Hub. Actor is the subject; Source is the other
// party when there is one (the attacker for EventAttacked). Behavior, From
// and To are set for EventStateChanged.
type Event struct {
	Kind     EventKind
	Actor    Actor
	Source   Actor
	Floor    int
	Behavior Kind
	From     string
	To       string
}

// Hub is a synchronous observer registry. It is not safe for concurrent
// use; the whole engine runs on the frame loop.
type Hub struct {
	nextID    uint64
	listeners map[uint64]*Subscription
	order     []uint64
}

func NewHub() *Hub {
	return &Hub{listeners: map[uint64]*Subscription{}}
}

// Subscription is the handle a behavior keeps for one registration.
type Subscription struct {
	hub   *Hub
	id    uint64
	kind  EventKind
	actor Actor
	fn    func(Event)
}

// Subscribe registers fn for events of kind whose subject is actor. A nil
// actor matches every subject.
func (h *Hub) Subscribe(kind EventKind, actor Actor, fn func(Event)) *Subscription {
	h.nextID++
	sub := &Subscription{hub: h, id: h.nextID, kind: kind, actor: actor, fn: fn}
	h.listeners[sub.id] = sub
	h.order = append(h.order, sub.id)
	return sub
}

// Release unregisters the subscription. Releasing twice is a no-op.
func (s *Subscription) Release() {
	if s == nil || s.hub == nil {
		return
	}
	delete(s.hub.listeners, s.id)
	s.hub = nil
}

// Publish delivers ev to matching listeners in registration order. Listeners
// added during delivery first hear the next Publish; released ones are
// skipped immediately.
func (h *Hub) Publish(ev Event) {
	ids := h.order[:0:0]
	for _, id := range h.order {
		if _, ok := h.listeners[id]; ok {
			ids = append(ids, id)
		}
	}
	h.order = append(h.order[:0], ids...)

	for _, id := range ids {
		sub, ok := h.listeners[id]
		if !ok || sub.kind != ev.Kind {
			continue
		}
		if sub.actor != nil && (ev.Actor == nil || sub.actor.ID() != ev.Actor.ID()) {
			continue
		}
		sub.fn(ev)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	return len(h.listeners)
}

// subscriptions is the set of handles one behavior instance owns.
type subscriptions []*Subscription

func (s *subscriptions) add(sub *Subscription) {
	*s = append(*s, sub)
}

func (s *subscriptions) releaseAll() {
	for _, sub := range *s {
		sub.Release()
	}
	*s = nil
}
