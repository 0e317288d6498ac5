package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType discriminates email jobs on the queue.
type JobType string

const (
	JobBookingConfirmation  JobType = "booking_confirmation"
	JobBookingCancellation  JobType = "booking_cancellation"
	JobWaitlistJoined       JobType = "waitlist_joined"
	JobWaitlistCancelled    JobType = "waitlist_cancelled"
	JobWaitlistNotification JobType = "waitlist_notification"
)

// EmailJob is the wire format for one email on the Kafka topic. The
// payload is flat; fields irrelevant to a job type stay zero and drop
// out of the JSON.
type EmailJob struct {
	ID          string  `json:"id"`
	Type        JobType `json:"type"`
	Recipient   string  `json:"recipient"`
	EventID     int64   `json:"event_id"`
	Reference   string  `json:"reference,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	TotalAmount float64 `json:"total_amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Position    int     `json:"position,omitempty"`
	ExpiresAt   string  `json:"expires_at,omitempty"`
	EnqueuedAt  string  `json:"enqueued_at"`
}

func newJob(jobType JobType, recipient string, eventID int64) *EmailJob {
	return &EmailJob{
		ID:         uuid.NewString(),
		Type:       jobType,
		Recipient:  recipient,
		EventID:    eventID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewBookingConfirmationJob builds the email sent after a booking is
// confirmed and paid.
func NewBookingConfirmationJob(recipient, reference string, eventID int64, quantity int, totalAmount float64, currency string) *EmailJob {
	job := newJob(JobBookingConfirmation, recipient, eventID)
	job.Reference = reference
	job.Quantity = quantity
	job.TotalAmount = totalAmount
	job.Currency = currency
	return job
}

// NewBookingCancellationJob builds the email confirming a cancellation.
func NewBookingCancellationJob(recipient, reference string, eventID int64, quantity int) *EmailJob {
	job := newJob(JobBookingCancellation, recipient, eventID)
	job.Reference = reference
	job.Quantity = quantity
	return job
}

// NewWaitlistJoinedJob builds the email confirming a queue spot.
func NewWaitlistJoinedJob(recipient string, eventID int64, quantity, position int) *EmailJob {
	job := newJob(JobWaitlistJoined, recipient, eventID)
	job.Quantity = quantity
	job.Position = position
	return job
}

// NewWaitlistCancelledJob builds the email confirming a withdrawal.
func NewWaitlistCancelledJob(recipient string, eventID int64) *EmailJob {
	return newJob(JobWaitlistCancelled, recipient, eventID)
}

// NewWaitlistNotificationJob builds the email telling a waiting user
// seats opened up and until when they can book.
func NewWaitlistNotificationJob(recipient string, eventID int64, quantity int, expiresAt time.Time) *EmailJob {
	job := newJob(JobWaitlistNotification, recipient, eventID)
	job.Quantity = quantity
	job.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	return job
}

// PartitionKey routes all jobs for a recipient to one partition so
// their emails keep order.
func (j *EmailJob) PartitionKey() string {
	return j.Recipient
}

// Subject returns the subject line for the job type.
func (j *EmailJob) Subject() string {
	switch j.Type {
	case JobBookingConfirmation:
		return fmt.Sprintf("Your booking %s is confirmed", j.Reference)
	case JobBookingCancellation:
		return fmt.Sprintf("Your booking %s was cancelled", j.Reference)
	case JobWaitlistJoined:
		return "You're on the waitlist"
	case JobWaitlistCancelled:
		return "Your waitlist entry was cancelled"
	case JobWaitlistNotification:
		return "Seats are available, complete your booking"
	default:
		return "Evently update"
	}
}

func (j *EmailJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// JobFromJSON parses and minimally validates a job off the wire.
func JobFromJSON(data []byte) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode email job: %w", err)
	}
	if job.Recipient == "" {
		return nil, fmt.Errorf("email job %s has no recipient", job.ID)
	}
	if job.Type == "" {
		return nil, fmt.Errorf("email job %s has no type", job.ID)
	}
	return &job, nil
}
