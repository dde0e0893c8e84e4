package realtime

import (
	"context"
	"encoding/json"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Broker is the publishing side of the pub/sub connection
type Broker interface {
	Publish(ctx context.Context, channel, payload string) error
}

// Publisher puts persisted notifications on their recipient's broker channel.
// Delivery is best-effort: failures are logged and never retried.
type Publisher struct {
	broker Broker
	log    *logrus.Logger
}

// NewPublisher creates a Publisher on top of broker
func NewPublisher(broker Broker, log *logrus.Logger) *Publisher {
	return &Publisher{broker: broker, log: log}
}

// Publish sends the projection of n to notifications:{ownerID}
func (p *Publisher) Publish(ctx context.Context, n *models.Notification) {
	fields := logrus.Fields{
		"notification_id": n.ID,
		"owner_id":        n.OwnerID,
	}

	payload, err := json.Marshal(n.ToPayload())
	if err != nil {
		p.log.WithFields(fields).WithError(err).Error("failed to encode notification")
		return
	}

	if err := p.broker.Publish(ctx, ChannelFor(n.OwnerID), string(payload)); err != nil {
		p.log.WithFields(fields).WithError(err).Error("failed to publish notification")
		return
	}
	p.log.WithFields(fields).Debug("notification published")
}

// PublishAll publishes each notification separately
func (p *Publisher) PublishAll(ctx context.Context, notifications []models.Notification) {
	for i := range notifications {
		p.Publish(ctx, &notifications[i])
	}
}
