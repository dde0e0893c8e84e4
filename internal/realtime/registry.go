package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned when a connection's queue cannot take another message
var ErrQueueFull = errors.New("delivery queue full")

// Queue is the delivery queue of one open streaming connection
type Queue struct {
	id      string
	ch      chan []byte
	dropped chan struct{}
}

// NewQueue creates a queue that buffers up to size undelivered messages
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		id:      uuid.NewString(),
		ch:      make(chan []byte, size),
		dropped: make(chan struct{}),
	}
}

// ID identifies the connection in logs
func (q *Queue) ID() string { return q.id }

// Messages is the receive side of the queue
func (q *Queue) Messages() <-chan []byte { return q.ch }

// Dropped is closed when the registry gives up on the queue because it was full
func (q *Queue) Dropped() <-chan struct{} { return q.dropped }

// markDropped must be called with the registry lock held
func (q *Queue) markDropped() {
	select {
	case <-q.dropped:
	default:
		close(q.dropped)
	}
}

// offer enqueues payload without blocking
func (q *Queue) offer(payload []byte) error {
	select {
	case q.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Registry maps recipients to the queues of their open streaming connections.
// It is safe for concurrent use by stream handlers and the broker listener.
type Registry struct {
	mu          sync.Mutex
	connections map[uint]map[*Queue]struct{}
	log         *logrus.Logger
}

// NewRegistry creates an empty Registry
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		connections: make(map[uint]map[*Queue]struct{}),
		log:         log,
	}
}

// AddConnection registers q for deliveries to recipientID
func (r *Registry) AddConnection(recipientID uint, q *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[recipientID]
	if !ok {
		set = make(map[*Queue]struct{})
		r.connections[recipientID] = set
	}
	set[q] = struct{}{}
}

// RemoveConnection deregisters q; the recipient entry goes away with its last queue
func (r *Registry) RemoveConnection(recipientID uint, q *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(recipientID, q)
}

func (r *Registry) removeLocked(recipientID uint, q *Queue) {
	set, ok := r.connections[recipientID]
	if !ok {
		return
	}
	delete(set, q)
	if len(set) == 0 {
		delete(r.connections, recipientID)
	}
}

// SendToRecipient enqueues payload on every queue of recipientID and returns
// how many queues took it. Recipients without connections are skipped
// silently; a queue that rejects the payload is dropped from the set.
func (r *Registry) SendToRecipient(recipientID uint, payload []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[recipientID]
	if !ok {
		return 0
	}

	delivered := 0
	for q := range set {
		if err := q.offer(payload); err != nil {
			r.log.WithFields(logrus.Fields{
				"recipient_id":  recipientID,
				"connection_id": q.ID(),
			}).WithError(err).Warn("dropping stalled connection")
			r.removeLocked(recipientID, q)
			q.markDropped()
			continue
		}
		delivered++
	}
	return delivered
}

// ConnectionCount returns the number of open queues for recipientID
func (r *Registry) ConnectionCount(recipientID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections[recipientID])
}

// RecipientCount returns the number of recipients with at least one open queue
func (r *Registry) RecipientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}
