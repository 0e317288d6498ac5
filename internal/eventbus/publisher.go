package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes domain events onto the shared bus. Delivery is
// fire-and-forget with at-least-once semantics; callers log failures
// and never roll back the originating mutation.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type redisPublisher struct {
	client *redis.Client
	log    *logger.Logger
}

func NewPublisher(client *redis.Client, log *logger.Logger) Publisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &redisPublisher{client: client, log: log}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", channel, err)
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(channel).Inc()
	p.log.DebugContext(ctx, "published domain event", "channel", channel)
	return nil
}
