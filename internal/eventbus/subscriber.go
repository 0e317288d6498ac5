package eventbus

import (
	"context"
	"encoding/json"
	"sync"

	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// CatalogApplier syncs the local capacity ledger from catalog events.
// Implemented by the availability service; declared here to avoid an
// import cycle.
type CatalogApplier interface {
	ApplyEventCreated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error
	ApplyEventUpdated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error
	ApplyEventDeleted(ctx context.Context, eventID int64) error
}

// Subscriber consumes catalog events from the bus and dispatches them
// to the applier. The bus is at-least-once, so the applier must be
// idempotent; malformed messages are dropped with a log line.
type Subscriber struct {
	client   *redis.Client
	applier  CatalogApplier
	log      *logger.Logger
	validate *validator.Validate
	wg       sync.WaitGroup
}

func NewSubscriber(client *redis.Client, applier CatalogApplier, log *logger.Logger) *Subscriber {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Subscriber{
		client:   client,
		applier:  applier,
		log:      log.WithComponent("eventbus.subscriber"),
		validate: validator.New(),
	}
}

// Start subscribes to the catalog channels and consumes until ctx is
// cancelled. It returns once the subscription is confirmed.
func (s *Subscriber) Start(ctx context.Context) error {
	sub := s.client.Subscribe(ctx,
		ChannelEventCreated,
		ChannelEventUpdated,
		ChannelEventDeleted,
	)

	// Receive forces the SUBSCRIBE round trip so a broken connection
	// fails startup instead of silently consuming nothing.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	s.wg.Add(1)
	go s.consume(ctx, sub)

	s.log.Info("catalog subscriber started",
		"channels", []string{ChannelEventCreated, ChannelEventUpdated, ChannelEventDeleted})
	return nil
}

// Stop blocks until the consume loop has drained after ctx cancellation.
func (s *Subscriber) Stop() {
	s.wg.Wait()
}

func (s *Subscriber) consume(ctx context.Context, sub *redis.PubSub) {
	defer s.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, channel string, payload []byte) {
	var msg EventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.log.WithError(err).Warn("dropping malformed catalog message", "channel", channel)
		metrics.EventsConsumedTotal.WithLabelValues(channel, "malformed").Inc()
		return
	}
	if err := s.validate.Struct(&msg); err != nil {
		s.log.WithError(err).Warn("dropping invalid catalog message", "channel", channel)
		metrics.EventsConsumedTotal.WithLabelValues(channel, "malformed").Inc()
		return
	}

	eventID := msg.EventID
	if eventID == 0 {
		eventID = msg.EventData.ID
	}
	if eventID <= 0 {
		s.log.Warn("dropping catalog message without event id", "channel", channel, "type", msg.Type)
		metrics.EventsConsumedTotal.WithLabelValues(channel, "malformed").Inc()
		return
	}

	var err error
	switch channel {
	case ChannelEventCreated:
		err = s.applier.ApplyEventCreated(ctx, eventID, msg.EventData.Name, msg.EventData.Capacity, msg.EventData.Price)
	case ChannelEventUpdated:
		err = s.applier.ApplyEventUpdated(ctx, eventID, msg.EventData.Name, msg.EventData.Capacity, msg.EventData.Price)
	case ChannelEventDeleted:
		err = s.applier.ApplyEventDeleted(ctx, eventID)
	default:
		s.log.Warn("message on unexpected channel", "channel", channel)
		return
	}

	if err != nil {
		s.log.WithError(err).Error("failed to apply catalog event",
			"channel", channel, "event_id", eventID)
		metrics.EventsConsumedTotal.WithLabelValues(channel, "error").Inc()
		return
	}

	metrics.EventsConsumedTotal.WithLabelValues(channel, "ok").Inc()
	s.log.DebugContext(ctx, "applied catalog event", "channel", channel, "event_id", eventID)
}
