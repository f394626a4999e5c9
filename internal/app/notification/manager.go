// Package notification provides the notification manager for broadcasting
// slideshow state to remote subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/urlshow/internal/domain/show"
)

// DefaultSendTimeout bounds a single send to one subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Kind is the kind of a notification.
type Kind int

const (
	KindStatus  Kind = iota // Slideshow state changed
	KindMessage             // User-facing message
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Notification is a single broadcast message.
type Notification struct {
	SequenceNo uint64
	Kind       Kind
	Status     show.Status
	Message    string
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// Dropper is implemented by streams that want to know when the manager
// drops them after a failed or timed-out send.
type Dropper interface {
	Dropped()
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sendTimeout   time.Duration

	sequenceNo   uint64
	sequenceNoMu sync.Mutex

	// last status, replayed to new subscribers
	lastMu     sync.RWMutex
	lastStatus *show.Status
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Msgf("notification: subscribed: id=%s total=%d", id, len(m.subscriptions))
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// LastStatus returns the most recently broadcast status.
func (m *Manager) LastStatus() (show.Status, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	if m.lastStatus == nil {
		return show.Status{}, false
	}
	return *m.lastStatus, true
}

// StateChanged broadcasts a status notification.
func (m *Manager) StateChanged(status show.Status) {
	m.lastMu.Lock()
	m.lastStatus = &status
	m.lastMu.Unlock()

	m.Broadcast(&Notification{Kind: KindStatus, Status: status})
}

// Notify broadcasts a user-facing message.
func (m *Manager) Notify(message string) {
	m.Broadcast(&Notification{Kind: KindMessage, Message: message})
}

// Broadcast sends a notification to all subscribers.
// Each stream send is done in a goroutine with a timeout to prevent blocking.
// Subscribers whose send fails or times out are dropped, so a stuck stream
// stalls at most one broadcast and never has two sends in flight.
func (m *Manager) Broadcast(notification *Notification) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	notification.SequenceNo = m.sequenceNo
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	var failed []string
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(notification)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: id=%s err=%v", s.id, err)
					failedMu.Lock()
					failed = append(failed, s.id)
					failedMu.Unlock()
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: id=%s seq=%d", s.id, notification.SequenceNo)
				failedMu.Lock()
				failed = append(failed, s.id)
				failedMu.Unlock()
			}
		}(sub)
	}

	wg.Wait()

	for _, id := range failed {
		m.drop(id)
	}
}

func (m *Manager) drop(id string) {
	m.mu.Lock()
	sub, ok := m.subscriptions[id]
	delete(m.subscriptions, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	zlog.Info().Msgf("notification: subscriber dropped: id=%s", id)
	if d, ok := sub.stream.(Dropper); ok {
		d.Dropped()
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
