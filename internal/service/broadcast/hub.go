// Package broadcast is the topic-keyed publish/subscribe fabric feeding the
// realtime channels. Delivery is best-effort, at-most-once, unbuffered.
package broadcast

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Conn is the write surface the hub needs from a connection. Websocket
// connections are subscribed as *SafeConn so that publishes from separate
// goroutines never write the same socket concurrently.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// DefaultTopic is the unkeyed (global) topic.
const DefaultTopic = ""

// Hub owns every topic's subscriber set. All methods are safe for
// concurrent use; publishes snapshot the subscriber set and write outside
// the lock.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[Conn]struct{})}
}

// Subscribe registers the connection under the given keys, or under the
// default topic when no key is given. One connection may hold
// subscriptions under several keys.
func (h *Hub) Subscribe(c Conn, keys ...string) {
	if len(keys) == 0 {
		keys = []string{DefaultTopic}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range keys {
		subs, ok := h.topics[key]
		if !ok {
			subs = make(map[Conn]struct{})
			h.topics[key] = subs
		}
		subs[c] = struct{}{}
	}
}

// Unsubscribe removes the connection from the given keys (default topic
// when none given). Empty topics are pruned.
func (h *Hub) Unsubscribe(c Conn, keys ...string) {
	if len(keys) == 0 {
		keys = []string{DefaultTopic}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range keys {
		if subs, ok := h.topics[key]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, key)
			}
		}
	}
}

// Drop removes the connection from every topic it holds. Called on
// disconnect.
func (h *Hub) Drop(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, key)
		}
	}
}

// Publish delivers the message to every subscriber of the given keys
// (default topic when none given). A subscriber whose write fails is
// closed and dropped from every topic; delivery to the rest continues. A
// connection that subscribes after a publish never receives it.
func (h *Hub) Publish(msg interface{}, keys ...string) {
	if len(keys) == 0 {
		keys = []string{DefaultTopic}
	}

	// Snapshot subscribers, then write without holding the lock.
	h.mu.RLock()
	var targets []Conn
	seen := make(map[Conn]struct{})
	for _, key := range keys {
		for c := range h.topics[key] {
			if _, dup := seen[c]; !dup {
				seen[c] = struct{}{}
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.WriteJSON(msg); err != nil {
			log.Debugf("Broadcast write failed, dropping subscriber: %v", err)
			_ = c.Close()
			h.Drop(c)
		}
	}
}

// SubscriberCount returns how many connections hold the key.
func (h *Hub) SubscriberCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[key])
}
