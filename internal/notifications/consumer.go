package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"
)

// ConsumerConfig tunes the email worker pool.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConsumerConfig returns the standard worker configuration.
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:      []string{"localhost:9092"},
		GroupID:      "evently-booking-mailer",
		Topic:        "evently.notifications.email",
		Workers:      4,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Consumer drains the email topic through a pool of mailer workers.
type Consumer struct {
	group  sarama.ConsumerGroup
	mailer Mailer
	config *ConsumerConfig
	log    *logger.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer joins the mailer consumer group.
func NewConsumer(cfg *ConsumerConfig, mailer Mailer, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = DefaultConsumerConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaCfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = true
	saramaCfg.Consumer.Offsets.AutoCommit.Interval = time.Second

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:  group,
		mailer: mailer,
		config: cfg,
		log:    log.WithComponent("notifications.consumer"),
	}, nil
}

// Start launches the worker pool. It returns immediately; workers stop
// when ctx is cancelled or Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.drainErrors()

	workers := c.config.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}
	c.log.Info("email workers started", "workers", workers, "topic", c.config.Topic)
}

// Stop shuts the workers down and leaves the consumer group.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.group.Close()
}

func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	handler := &mailerHandler{
		mailer:     c.mailer,
		maxRetries: c.config.MaxRetries,
		backoff:    c.config.RetryBackoff,
		log:        c.log.WithFields(map[string]interface{}{"worker": workerID}),
	}
	for {
		if ctx.Err() != nil {
			return
		}
		// Consume returns on rebalance; loop to rejoin the group.
		if err := c.group.Consume(ctx, []string{c.config.Topic}, handler); err != nil {
			c.log.WithError(err).Error("consumer session failed", "worker", workerID)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) drainErrors() {
	for err := range c.group.Errors() {
		c.log.WithError(err).Warn("consumer group error")
	}
}

// mailerHandler processes one claim's messages. Every message is
// marked: a job that still fails after retries is logged and counted,
// not redelivered forever.
type mailerHandler struct {
	mailer     Mailer
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func (h *mailerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *mailerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *mailerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg := <-claim.Messages():
			if msg == nil {
				return nil
			}
			h.handle(session.Context(), msg)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *mailerHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	job, err := JobFromJSON(msg.Value)
	if err != nil {
		metrics.EmailJobsTotal.WithLabelValues("unknown", "dropped").Inc()
		h.log.WithError(err).Warn("dropping malformed email job", "topic", msg.Topic, "offset", msg.Offset)
		return
	}

	if err := h.deliver(ctx, job); err != nil {
		metrics.EmailJobsTotal.WithLabelValues(string(job.Type), "failed").Inc()
		h.log.WithError(err).Error("email job failed", "job_id", job.ID, "type", string(job.Type))
		return
	}
	metrics.EmailJobsTotal.WithLabelValues(string(job.Type), "sent").Inc()
}

// deliver retries with exponential backoff before giving up on a job.
func (h *mailerHandler) deliver(ctx context.Context, job *EmailJob) error {
	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			delay := h.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = h.mailer.Send(ctx, job); lastErr == nil {
			if attempt > 0 {
				h.log.Info("email delivered after retry", "job_id", job.ID, "attempts", attempt+1)
			}
			return nil
		}
	}
	return lastErr
}
