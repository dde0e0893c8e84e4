package broker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Message is a single inbound pub/sub message
type Message struct {
	Channel string
	Pattern string
	Payload string
}

// Subscription is an open subscription handle
type Subscription struct {
	pubsub *redis.PubSub
}

// newSubscription waits for the server to confirm the subscription so that
// nothing published after it returns is missed.
func newSubscription(ctx context.Context, pubsub *redis.PubSub) (*Subscription, error) {
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("confirm subscription: %w", err)
	}
	return &Subscription{pubsub: pubsub}, nil
}

// Receive blocks until the next message arrives, ctx is done, or the
// connection fails.
func (s *Subscription) Receive(ctx context.Context) (*Message, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Channel: msg.Channel,
		Pattern: msg.Pattern,
		Payload: msg.Payload,
	}, nil
}

// Close unsubscribes and releases the underlying connection
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
