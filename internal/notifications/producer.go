package notifications

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"evently-booking/internal/shared/apperrors"
	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"
)

// Producer enqueues email jobs for the mailer workers. The booking and
// waitlist services consume this through their own narrow interfaces.
type Producer interface {
	EnqueueBookingConfirmation(ctx context.Context, recipient, reference string, eventID int64, quantity int, totalAmount float64, currency string) error
	EnqueueBookingCancellation(ctx context.Context, recipient, reference string, eventID int64, quantity int) error
	EnqueueWaitlistJoined(ctx context.Context, recipient string, eventID int64, quantity, position int) error
	EnqueueWaitlistCancelled(ctx context.Context, recipient string, eventID int64) error
	EnqueueWaitlistNotification(ctx context.Context, recipient string, eventID int64, quantity int, expiresAt time.Time) error
	Close() error
}

// ProducerConfig tunes the Kafka email producer.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewProducer connects a synchronous, idempotent Kafka producer.
// Writes wait for all in-sync replicas; enqueueing an email is cheap
// compared to re-sending one.
func NewProducer(cfg *ProducerConfig, log *logger.Logger) (Producer, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Net.MaxOpenRequests = 1
	// Key by recipient so one user's emails stay ordered.
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info("email producer connected", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &kafkaProducer{
		producer: producer,
		topic:    cfg.Topic,
		log:      log.WithComponent("notifications.producer"),
	}, nil
}

func (p *kafkaProducer) EnqueueBookingConfirmation(ctx context.Context, recipient, reference string, eventID int64, quantity int, totalAmount float64, currency string) error {
	return p.enqueue(ctx, NewBookingConfirmationJob(recipient, reference, eventID, quantity, totalAmount, currency))
}

func (p *kafkaProducer) EnqueueBookingCancellation(ctx context.Context, recipient, reference string, eventID int64, quantity int) error {
	return p.enqueue(ctx, NewBookingCancellationJob(recipient, reference, eventID, quantity))
}

func (p *kafkaProducer) EnqueueWaitlistJoined(ctx context.Context, recipient string, eventID int64, quantity, position int) error {
	return p.enqueue(ctx, NewWaitlistJoinedJob(recipient, eventID, quantity, position))
}

func (p *kafkaProducer) EnqueueWaitlistCancelled(ctx context.Context, recipient string, eventID int64) error {
	return p.enqueue(ctx, NewWaitlistCancelledJob(recipient, eventID))
}

func (p *kafkaProducer) EnqueueWaitlistNotification(ctx context.Context, recipient string, eventID int64, quantity int, expiresAt time.Time) error {
	return p.enqueue(ctx, NewWaitlistNotificationJob(recipient, eventID, quantity, expiresAt))
}

func (p *kafkaProducer) enqueue(ctx context.Context, job *EmailJob) error {
	payload, err := job.ToJSON()
	if err != nil {
		return apperrors.Internal(err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(job.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.EmailJobsTotal.WithLabelValues(string(job.Type), "enqueue_error").Inc()
		return apperrors.Internal(err)
	}

	metrics.EmailJobsTotal.WithLabelValues(string(job.Type), "enqueued").Inc()
	p.log.Debug("email job enqueued", "job_id", job.ID, "type", string(job.Type), "partition", partition, "offset", offset)
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.producer.Close()
}

// noopProducer drops every job. Used when the Kafka pipeline is
// disabled so callers never hold a nil Producer.
type noopProducer struct {
	log *logger.Logger
}

// NewNoopProducer creates a producer that only logs.
func NewNoopProducer(log *logger.Logger) Producer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &noopProducer{log: log.WithComponent("notifications.producer")}
}

func (p *noopProducer) EnqueueBookingConfirmation(ctx context.Context, recipient, reference string, eventID int64, quantity int, totalAmount float64, currency string) error {
	return p.drop(JobBookingConfirmation, recipient)
}

func (p *noopProducer) EnqueueBookingCancellation(ctx context.Context, recipient, reference string, eventID int64, quantity int) error {
	return p.drop(JobBookingCancellation, recipient)
}

func (p *noopProducer) EnqueueWaitlistJoined(ctx context.Context, recipient string, eventID int64, quantity, position int) error {
	return p.drop(JobWaitlistJoined, recipient)
}

func (p *noopProducer) EnqueueWaitlistCancelled(ctx context.Context, recipient string, eventID int64) error {
	return p.drop(JobWaitlistCancelled, recipient)
}

func (p *noopProducer) EnqueueWaitlistNotification(ctx context.Context, recipient string, eventID int64, quantity int, expiresAt time.Time) error {
	return p.drop(JobWaitlistNotification, recipient)
}

func (p *noopProducer) drop(jobType JobType, recipient string) error {
	p.log.Debug("email job skipped, kafka disabled", "type", string(jobType), "recipient", recipient)
	return nil
}

func (p *noopProducer) Close() error {
	return nil
}
