package store

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

// NotificationType classifies a notification.
type NotificationType string

// Notification types.
const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is a message shown to the user for a limited time.
// A zero Duration keeps it until it is removed.
type Notification struct {
	ID       string           `json:"id"`
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Duration time.Duration    `json:"duration"`
}

// MarshalJSON writes Duration in milliseconds.
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return json.Marshal(struct {
		plain
		Duration int64 `json:"duration"`
	}{plain: plain(n), Duration: n.Duration.Milliseconds()})
}

// UnmarshalJSON reads Duration in milliseconds.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Duration int64 `json:"duration"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Duration = time.Duration(aux.Duration) * time.Millisecond
	return nil
}

// NotificationOption customizes a notification.
type NotificationOption func(*Notification)

// WithType sets the notification type. The default is info.
func WithType(t NotificationType) NotificationOption {
	return func(n *Notification) {
		n.Type = t
	}
}

// WithDuration sets how long the notification stays. 0 persists it.
func WithDuration(d time.Duration) NotificationOption {
	return func(n *Notification) {
		n.Duration = d
	}
}

// Timer is the part of *time.Timer the store needs.
type Timer interface {
	Stop() bool
}

// GlobalStore holds the UI-wide loading flag, error and notification queue.
type GlobalStore struct {
	Broadcaster

	mu            sync.RWMutex
	loading       bool
	err           string
	notifications []Notification
	timers        map[string]Timer

	afterFunc func(time.Duration, func()) Timer
}

// GlobalOption configures a GlobalStore.
type GlobalOption func(*GlobalStore)

// WithAfterFunc replaces time.AfterFunc for notification expiry. The
// callback must not be invoked before f returns.
func WithAfterFunc(f func(time.Duration, func()) Timer) GlobalOption {
	return func(s *GlobalStore) {
		s.afterFunc = f
	}
}

// NewGlobalStore creates an empty global store.
func NewGlobalStore(opts ...GlobalOption) *GlobalStore {
	s := &GlobalStore{
		timers: make(map[string]Timer),
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLoading sets the loading flag.
func (s *GlobalStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	s.SendEvent(Event{Type: EventLoading, Data: v})
}

// IsLoading reports the loading flag.
func (s *GlobalStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError sets the global error message. Non-empty errors are logged.
func (s *GlobalStore) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = message
	if message != "" {
		slog.Error("global error", "error", message)
	}
	s.SendEvent(Event{Type: EventError, Message: message})
}

// ClearError removes the global error.
func (s *GlobalStore) ClearError() {
	s.SetError("")
}

// Error returns the global error message, empty when there is none.
func (s *GlobalStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// HasError reports whether a global error is set.
func (s *GlobalStore) HasError() bool {
	return s.Error() != ""
}

// AddNotification queues a notification and returns its id. Unless its
// duration is 0 the notification removes itself once the duration elapses.
func (s *GlobalStore) AddNotification(title, message string, opts ...NotificationOption) string {
	n := Notification{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Type:     NotificationInfo,
		Title:    title,
		Message:  message,
		Duration: constants.DefaultNotificationDuration,
	}
	for _, opt := range opts {
		opt(&n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	if n.Duration > 0 {
		id := n.ID
		s.timers[id] = s.afterFunc(n.Duration, func() { s.RemoveNotification(id) })
	}
	s.SendEvent(Event{Type: EventNotification, Data: n})
	return n.ID
}

// RemoveNotification removes the notification with the given id.
// Unknown ids are ignored.
func (s *GlobalStore) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	i := slices.IndexFunc(s.notifications, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return
	}
	s.notifications = slices.Delete(s.notifications, i, i+1)
	s.SendEvent(Event{Type: EventNotificationRemoved, Message: id})
}

// ClearNotifications empties the queue and stops every pending expiry.
func (s *GlobalStore) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for _, n := range s.notifications {
		s.SendEvent(Event{Type: EventNotificationRemoved, Message: n.ID})
	}
	s.notifications = nil
}

// Notifications returns the queued notifications, oldest first.
func (s *GlobalStore) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}
