// Package store holds the in-memory application state: the analysis store
// (analyses, current analysis, analyzing flag, upload progress) and the
// global store (loading flag, error, notification queue).
//
// State is only changed through the store methods. Every change is
// broadcast to listeners so front ends (terminal, SSE) can follow it.
package store

import (
	"sync"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

// Event types sent by the stores.
const (
	EventProgress            = "progress"
	EventAnalyzing           = "analyzing"
	EventCurrent             = "current"
	EventAnalyses            = "analyses"
	EventLoading             = "loading"
	EventError               = "error"
	EventNotification        = "notification"
	EventNotificationRemoved = "notification_removed"
)

// Event represents a state change.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Broadcaster provides listener management and event fan-out.
// Embed it in a store to get AddListener, RemoveListener and SendEvent.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *Broadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
