package bookings

import (
	"time"
)

// Booking is the aggregate root for a seat reservation against an event.
// Capacity accounting lives in the availability ledger; the booking row
// records who holds how many seats and where in the lifecycle they are.
type Booking struct {
	ID               int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           int64   `json:"user_id" gorm:"not null;index"`
	EventID          int64   `json:"event_id" gorm:"not null;index"`
	BookingReference string  `json:"booking_reference" gorm:"uniqueIndex;size:32;not null"`
	Quantity         int     `json:"quantity" gorm:"not null"`
	TotalAmount      float64 `json:"total_amount" gorm:"not null"`
	Currency         string  `json:"currency" gorm:"size:3;not null"`

	Status        Status        `json:"status" gorm:"size:20;not null;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"size:20;not null"`

	BookingDate        time.Time  `json:"booking_date" gorm:"not null"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"size:500"`

	Version   int64  `json:"version" gorm:"not null"`
	Notes     string `json:"notes,omitempty" gorm:"size:1000"`
	IPAddress string `json:"-" gorm:"size:45"`
	UserAgent string `json:"-" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items     []BookingItem     `json:"items,omitempty" gorm:"foreignKey:BookingID"`
	AuditLogs []BookingAuditLog `json:"-" gorm:"foreignKey:BookingID"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingItem is a line item within a booking. The current booking flow
// produces a single standard line per booking; the schema allows more.
type BookingItem struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BookingID    int64     `json:"booking_id" gorm:"not null;index"`
	TicketType   string    `json:"ticket_type" gorm:"size:50;not null"`
	PricePerItem float64   `json:"price_per_item" gorm:"not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	TotalPrice   float64   `json:"total_price" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (BookingItem) TableName() string {
	return "booking_items"
}

// BookingAuditLog is an append-only record of a booking mutation.
// ChangedBy is the acting user id, zero for system actions such as the
// expiry sweeper.
type BookingAuditLog struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BookingID int64     `json:"booking_id" gorm:"not null;index"`
	Action    string    `json:"action" gorm:"size:30;not null"`
	FieldName string    `json:"field_name,omitempty" gorm:"size:50"`
	OldValue  string    `json:"old_value,omitempty" gorm:"size:500"`
	NewValue  string    `json:"new_value,omitempty" gorm:"size:500"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at" gorm:"not null"`
	Reason    string    `json:"reason,omitempty" gorm:"size:500"`
}

func (BookingAuditLog) TableName() string {
	return "booking_audit_logs"
}

// ToResponse converts the booking to its API representation.
func (b *Booking) ToResponse() *BookingResponse {
	items := make([]BookingItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, BookingItemResponse{
			ID:           item.ID,
			TicketType:   item.TicketType,
			PricePerItem: item.PricePerItem,
			Quantity:     item.Quantity,
			TotalPrice:   item.TotalPrice,
		})
	}

	return &BookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		EventID:            b.EventID,
		BookingReference:   b.BookingReference,
		Quantity:           b.Quantity,
		TotalAmount:        b.TotalAmount,
		Currency:           b.Currency,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		BookingDate:        b.BookingDate,
		ExpiresAt:          b.ExpiresAt,
		ConfirmedAt:        b.ConfirmedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		Notes:              b.Notes,
		Items:              items,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// ToAuditResponse converts an audit row to its API representation.
func (a *BookingAuditLog) ToAuditResponse() AuditLogResponse {
	return AuditLogResponse{
		ID:        a.ID,
		BookingID: a.BookingID,
		Action:    a.Action,
		FieldName: a.FieldName,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
		ChangedBy: a.ChangedBy,
		ChangedAt: a.ChangedAt,
		Reason:    a.Reason,
	}
}
