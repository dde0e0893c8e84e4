// Package broker owns the process-wide pub/sub connection. In testing mode it
// runs an in-memory Redis so publish and pattern-subscribe behave exactly as
// they do against a real server.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned by operations attempted before Connect or after Disconnect
var ErrNotConnected = errors.New("broker: not connected")

// Manager holds the single broker client of the process
type Manager struct {
	mu     sync.RWMutex
	client *redis.Client
	fake   *miniredis.Miniredis
	log    *logrus.Logger
}

// NewManager creates a disconnected Manager
func NewManager(log *logrus.Logger) *Manager {
	return &Manager{log: log}
}

// Connect dials the broker at url, or starts an in-memory broker when testing
// is set. Calling Connect on a connected Manager is a no-op.
func (m *Manager) Connect(ctx context.Context, testing bool, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return nil
	}

	var (
		client *redis.Client
		fake   *miniredis.Miniredis
	)

	if testing {
		var err error
		fake, err = miniredis.Run()
		if err != nil {
			return fmt.Errorf("start in-memory broker: %w", err)
		}
		client = redis.NewClient(&redis.Options{
			Addr:     fake.Addr(),
			Protocol: 2,
		})
	} else {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return fmt.Errorf("parse broker url: %w", err)
		}
		client = redis.NewClient(opts)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if fake != nil {
			fake.Close()
		}
		return fmt.Errorf("ping broker: %w", err)
	}

	m.client = client
	m.fake = fake
	m.log.WithField("fake", testing).Info("Connected to broker")
	return nil
}

// Disconnect releases the connection. It is safe to call when never connected.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	err := m.client.Close()
	if m.fake != nil {
		m.fake.Close()
	}
	m.client = nil
	m.fake = nil
	m.log.Info("Broker connection closed")
	return err
}

// Publish sends payload on channel without waiting for any subscriber
func (m *Manager) Publish(ctx context.Context, channel, payload string) error {
	client := m.Client()
	if client == nil {
		return ErrNotConnected
	}
	return client.Publish(ctx, channel, payload).Err()
}

// Subscribe subscribes to the given channels
func (m *Manager) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	client := m.Client()
	if client == nil {
		return nil, ErrNotConnected
	}
	return newSubscription(ctx, client.Subscribe(ctx, channels...))
}

// PSubscribe subscribes to every channel matching the given glob patterns
func (m *Manager) PSubscribe(ctx context.Context, patterns ...string) (*Subscription, error) {
	client := m.Client()
	if client == nil {
		return nil, ErrNotConnected
	}
	return newSubscription(ctx, client.PSubscribe(ctx, patterns...))
}

// Client exposes the raw client for cross-cutting uses such as health checks.
// It returns nil when not connected.
func (m *Manager) Client() *redis.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// IsConnected reports whether Connect has succeeded and Disconnect has not been called
func (m *Manager) IsConnected() bool {
	return m.Client() != nil
}

// IsFake reports whether the Manager is backed by the in-memory broker
func (m *Manager) IsFake() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fake != nil
}
