package presenter

import (
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type EventType string

const (
	EventProductsLoaded EventType = "products_loaded"
	EventCartUpdated    EventType = "cart_updated"
	EventError          EventType = "error"
	EventBusyChanged    EventType = "busy_changed"
)

type ErrorEvent struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Event is one notification as seen by a remote front end.
type Event struct {
	Type     EventType        `json:"type"`
	Products []domain.Product `json:"products,omitempty"`
	Cart     *domain.Cart     `json:"cart,omitempty"`
	Error    *ErrorEvent      `json:"error,omitempty"`
	Busy     *bool            `json:"busy,omitempty"`
	At       time.Time        `json:"at"`
}

// Hub is a Presenter that fans notifications out to subscribers.
// Delivery never blocks the core: a subscriber whose buffer is full misses the event.
type Hub struct {
	buffer int
	now    func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	latest map[EventType]Event
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{
		buffer: buffer,
		now:    time.Now,
		subs:   make(map[int]chan Event),
		latest: make(map[EventType]Event),
	}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Latest returns the most recent event of the given type.
func (h *Hub) Latest(t EventType) (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.latest[t]
	return e, ok
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) publish(e Event) {
	e.At = h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[e.Type] = e
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *Hub) OnProductsLoaded(products []domain.Product) {
	h.publish(Event{Type: EventProductsLoaded, Products: append([]domain.Product(nil), products...)})
}

func (h *Hub) OnCartUpdated(cart domain.Cart) {
	c := cart.Clone()
	h.publish(Event{Type: EventCartUpdated, Cart: &c})
}

func (h *Hub) OnError(kind Kind, message string) {
	h.publish(Event{Type: EventError, Error: &ErrorEvent{Kind: kind, Message: message}})
}

func (h *Hub) OnBusyChanged(busy bool) {
	h.publish(Event{Type: EventBusyChanged, Busy: &busy})
}
