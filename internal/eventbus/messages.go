package eventbus

import "time"

// Wire shapes for domain events. Timestamps are RFC3339 UTC strings so
// non-Go consumers never see Go-specific encodings.

// BookingData is the booking snapshot embedded in booking messages.
type BookingData struct {
	ID                 int64   `json:"id"`
	EventID            int64   `json:"event_id"`
	UserID             int64   `json:"user_id"`
	BookingReference   string  `json:"booking_reference"`
	Quantity           int     `json:"quantity"`
	TotalAmount        float64 `json:"total_amount"`
	Currency           string  `json:"currency"`
	Status             string  `json:"status"`
	PaymentStatus      string  `json:"payment_status"`
	CreatedAt          string  `json:"created_at"`
	ExpiresAt          string  `json:"expires_at,omitempty"`
	ConfirmedAt        string  `json:"confirmed_at,omitempty"`
	CancelledAt        string  `json:"cancelled_at,omitempty"`
	ExpiredAt          string  `json:"expired_at,omitempty"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
}

// BookingMessage is the envelope for all booking lifecycle events.
type BookingMessage struct {
	Type        string      `json:"type"`
	BookingID   int64       `json:"booking_id"`
	EventID     int64       `json:"event_id"`
	UserID      int64       `json:"user_id"`
	BookingData BookingData `json:"booking_data"`
	Timestamp   string      `json:"timestamp"`
}

// WaitlistData is the waitlist entry snapshot embedded in waitlist messages.
type WaitlistData struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	UserID      int64  `json:"user_id"`
	Quantity    int    `json:"quantity"`
	Priority    int    `json:"priority"`
	Status      string `json:"status"`
	JoinedAt    string `json:"joined_at"`
	NotifiedAt  string `json:"notified_at,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	CancelledAt string `json:"cancelled_at,omitempty"`
}

// WaitlistMessage is the envelope for waitlist join/cancel events.
type WaitlistMessage struct {
	Type         string       `json:"type"`
	WaitlistID   int64        `json:"waitlist_id"`
	EventID      int64        `json:"event_id"`
	UserID       int64        `json:"user_id"`
	WaitlistData WaitlistData `json:"waitlist_data"`
	Timestamp    string       `json:"timestamp"`
}

// WaitlistNotificationsSentMessage reports how many entries a
// notify pass promoted for an event.
type WaitlistNotificationsSentMessage struct {
	Type              string `json:"type"`
	EventID           int64  `json:"event_id"`
	NotificationsSent int    `json:"notifications_sent"`
	Timestamp         string `json:"timestamp"`
}

// WaitlistAvailabilityUpdatedMessage announces a ledger capacity change.
type WaitlistAvailabilityUpdatedMessage struct {
	Type          string `json:"type"`
	EventID       int64  `json:"event_id"`
	Available     int    `json:"available"`
	TotalCapacity int    `json:"total_capacity"`
	Timestamp     string `json:"timestamp"`
}

// EventData is the catalog snapshot carried by inbound event messages.
type EventData struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity" validate:"min=0"`
	Price    float64 `json:"price" validate:"min=0"`
}

// EventMessage is the inbound envelope published by the events catalog.
type EventMessage struct {
	Type      string    `json:"type" validate:"required"`
	EventID   int64     `json:"event_id"`
	EventData EventData `json:"event_data"`
	Timestamp string    `json:"timestamp"`
}

func NewBookingMessage(msgType string, data BookingData) BookingMessage {
	return BookingMessage{
		Type:        msgType,
		BookingID:   data.ID,
		EventID:     data.EventID,
		UserID:      data.UserID,
		BookingData: data,
		Timestamp:   timestampNow(),
	}
}

func NewWaitlistMessage(msgType string, data WaitlistData) WaitlistMessage {
	return WaitlistMessage{
		Type:         msgType,
		WaitlistID:   data.ID,
		EventID:      data.EventID,
		UserID:       data.UserID,
		WaitlistData: data,
		Timestamp:    timestampNow(),
	}
}

func NewWaitlistNotificationsSent(eventID int64, notificationsSent int) WaitlistNotificationsSentMessage {
	return WaitlistNotificationsSentMessage{
		Type:              TypeWaitlistNotificationsSent,
		EventID:           eventID,
		NotificationsSent: notificationsSent,
		Timestamp:         timestampNow(),
	}
}

func NewWaitlistAvailabilityUpdated(eventID int64, available, totalCapacity int) WaitlistAvailabilityUpdatedMessage {
	return WaitlistAvailabilityUpdatedMessage{
		Type:          TypeWaitlistAvailabilityUpdated,
		EventID:       eventID,
		Available:     available,
		TotalCapacity: totalCapacity,
		Timestamp:     timestampNow(),
	}
}

// FormatTime renders a timestamp for the wire; zero times render empty
// so omitempty drops them.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

func timestampNow() string {
	return FormatTime(time.Now())
}
