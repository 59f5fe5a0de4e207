package room

import (
	"errors"
	"sync"
)

const defaultBuffer = 32

// Message is one event delivered to a subscriber.
type Message struct {
	Event   string `json:"event"`
	Version int64  `json:"version"`
	Data    any    `json:"data"`
}

// Client is a live subscription to one room. Messages arrive on C in the
// order they were published to the room; C is closed on unsubscribe or when
// the client falls too far behind.
type Client struct {
	code    string
	send    chan Message
	version int64
	closed  bool
}

func (c *Client) C() <-chan Message {
	return c.send
}

func (c *Client) Code() string {
	return c.code
}

type room struct {
	mu          sync.Mutex
	clients     map[*Client]struct{}
	lastVersion int64
}

// Hub maps game codes to their subscribers. It holds no game state.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*room
	buffer int
}

func NewHub() *Hub {
	return NewHubWithBuffer(defaultBuffer)
}

func NewHubWithBuffer(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		rooms:  make(map[string]*room),
		buffer: buffer,
	}
}

// Prime produces the messages a new subscriber receives before any live
// message, and the version they reflect.
type Prime func() (version int64, messages []Message, err error)

// Subscribe registers a client for code. prime runs under the room lock, so
// no publish can interleave between the primed state and registration.
func (h *Hub) Subscribe(code string, prime Prime) (*Client, error) {
	r := h.lockRoom(code)
	defer r.mu.Unlock()

	client := &Client{
		code: code,
		send: make(chan Message, h.buffer),
	}
	if prime != nil {
		version, messages, err := prime()
		if err != nil {
			h.dropIfEmpty(code, r)
			return nil, err
		}
		if len(messages) > cap(client.send) {
			h.dropIfEmpty(code, r)
			return nil, errors.New("initial messages exceed client buffer")
		}
		client.version = version
		for _, msg := range messages {
			client.send <- msg
		}
	}
	r.clients[client] = struct{}{}
	return client, nil
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	r := h.rooms[client.code]
	h.mu.Unlock()
	if r == nil {
		return
	}
	r.mu.Lock()
	h.removeLocked(r, client)
	h.dropIfEmpty(client.code, r)
	r.mu.Unlock()
}

// Publish delivers messages to every subscriber of code. A batch older than
// one already published to the room is dropped; subscribers primed at or
// beyond version skip it. Delivery never blocks: a client with a full buffer
// is disconnected and is expected to resubscribe.
func (h *Hub) Publish(code string, version int64, messages ...Message) int {
	h.mu.Lock()
	r := h.rooms[code]
	h.mu.Unlock()
	if r == nil || len(messages) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if version <= r.lastVersion {
		return 0
	}
	r.lastVersion = version
	delivered := 0
	for client := range r.clients {
		if client.version >= version {
			continue
		}
		if !trySendAll(client, messages) {
			h.removeLocked(r, client)
			continue
		}
		delivered++
	}
	return delivered
}

// Count reports the live subscribers of code.
func (h *Hub) Count(code string) int {
	h.mu.Lock()
	r := h.rooms[code]
	h.mu.Unlock()
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func trySendAll(client *Client, messages []Message) bool {
	if cap(client.send)-len(client.send) < len(messages) {
		return false
	}
	for _, msg := range messages {
		client.send <- msg
	}
	return true
}

// lockRoom returns the registered room for code with its lock held. A room
// forgotten between lookup and locking is looked up again.
func (h *Hub) lockRoom(code string) *room {
	for {
		h.mu.Lock()
		r := h.rooms[code]
		if r == nil {
			r = &room{clients: make(map[*Client]struct{})}
			h.rooms[code] = r
		}
		h.mu.Unlock()

		r.mu.Lock()
		h.mu.Lock()
		current := h.rooms[code] == r
		h.mu.Unlock()
		if current {
			return r
		}
		r.mu.Unlock()
	}
}

func (h *Hub) removeLocked(r *room, client *Client) {
	if _, ok := r.clients[client]; !ok {
		return
	}
	delete(r.clients, client)
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

// dropIfEmpty forgets an empty room. Callers hold r.mu.
func (h *Hub) dropIfEmpty(code string, r *room) {
	if len(r.clients) > 0 {
		return
	}
	h.mu.Lock()
	if h.rooms[code] == r {
		delete(h.rooms, code)
	}
	h.mu.Unlock()
}
