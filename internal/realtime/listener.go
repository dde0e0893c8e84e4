package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/broker"
	"github.com/sirupsen/logrus"
)

// PatternSubscriber opens pattern subscriptions on the broker
type PatternSubscriber interface {
	PSubscribe(ctx context.Context, patterns ...string) (*broker.Subscription, error)
}

// Listener forwards every message on notifications:* to the Registry
type Listener struct {
	subscriber PatternSubscriber
	registry   *Registry
	log        *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewListener creates a Listener; it does nothing until Run or Start
func NewListener(subscriber PatternSubscriber, registry *Registry, log *logrus.Logger) *Listener {
	return &Listener{
		subscriber: subscriber,
		registry:   registry,
		log:        log,
	}
}

// Run subscribes and forwards messages until ctx is cancelled, returning nil,
// or the subscription fails, returning the error. A bad message is logged and
// skipped.
func (l *Listener) Run(ctx context.Context) error {
	sub, err := l.subscriber.PSubscribe(ctx, ChannelPattern)
	if err != nil {
		l.log.WithError(err).Error("notification listener failed to subscribe")
		return fmt.Errorf("subscribe %s: %w", ChannelPattern, err)
	}
	defer sub.Close()

	// A blocked Receive only returns once the subscription is closed.
	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	defer stop()

	l.log.WithField("pattern", ChannelPattern).Info("notification listener started")

	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info("notification listener stopped")
				return nil
			}
			l.log.WithError(err).Error("notification listener lost its subscription")
			return err
		}

		if err := l.forward(msg); err != nil {
			l.log.WithField("channel", msg.Channel).WithError(err).Error("error processing broker message")
		}
	}
}

func (l *Listener) forward(msg *broker.Message) error {
	recipientID, err := RecipientFromChannel(msg.Channel)
	if err != nil {
		return err
	}

	var payload models.NotificationPayload
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	n := l.registry.SendToRecipient(recipientID, []byte(msg.Payload))
	l.log.WithFields(logrus.Fields{
		"recipient_id":    recipientID,
		"notification_id": payload.ID,
		"connections":     n,
	}).Debug("notification forwarded")
	return nil
}

// Start runs the listener in the background. Calling Start while running is a no-op.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
}

// Stop cancels a started listener and waits for it to return
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the background run started by Start returns. It is nil
// when the listener has not been started.
func (l *Listener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
