package bookings

import "time"

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID                 int64                 `json:"id"`
	UserID             int64                 `json:"user_id"`
	EventID            int64                 `json:"event_id"`
	BookingReference   string                `json:"booking_reference"`
	Quantity           int                   `json:"quantity"`
	TotalAmount        float64               `json:"total_amount"`
	Currency           string                `json:"currency"`
	Status             string                `json:"status"`
	PaymentStatus      string                `json:"payment_status"`
	BookingDate        time.Time             `json:"booking_date"`
	ExpiresAt          *time.Time            `json:"expires_at,omitempty"`
	ConfirmedAt        *time.Time            `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time            `json:"cancelled_at,omitempty"`
	CancellationReason string                `json:"cancellation_reason,omitempty"`
	Notes              string                `json:"notes,omitempty"`
	Items              []BookingItemResponse `json:"items,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// BookingItemResponse is the API representation of a booking line item.
type BookingItemResponse struct {
	ID           int64   `json:"id"`
	TicketType   string  `json:"ticket_type"`
	PricePerItem float64 `json:"price_per_item"`
	Quantity     int     `json:"quantity"`
	TotalPrice   float64 `json:"total_price"`
}

// CreateBookingResponse wraps a freshly created booking with its hold
// deadline so clients know when the pending reservation lapses.
type CreateBookingResponse struct {
	Booking   *BookingResponse `json:"booking"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// PaginatedBookings is a page of bookings plus paging metadata.
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// AuditLogResponse is the API representation of one audit entry.
type AuditLogResponse struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	Action    string    `json:"action"`
	FieldName string    `json:"field_name,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
}

// BookingStatsResponse aggregates booking activity over a period.
type BookingStatsResponse struct {
	PeriodDays    int              `json:"period_days"`
	TotalBookings int64            `json:"total_bookings"`
	TotalTickets  int64            `json:"total_tickets"`
	TotalRevenue  float64          `json:"total_revenue"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ExpiryResponse reports how many pending bookings a sweep expired.
type ExpiryResponse struct {
	ExpiredCount int `json:"expired_count"`
}
