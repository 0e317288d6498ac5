package bookings

// CreateBookingRequest is the payload for creating a booking hold.
type CreateBookingRequest struct {
	EventID  int64  `json:"event_id" binding:"required,gt=0"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=10"`
	Notes    string `json:"notes,omitempty" binding:"max=1000"`
}

// CancelBookingRequest carries an optional reason for cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

// UpdateStatusRequest is the admin payload for forcing a status change.
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=PENDING CONFIRMED CANCELLED EXPIRED REFUNDED COMPLETED"`
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

// ListQuery captures pagination and filtering for booking listings.
type ListQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=10" binding:"min=1,max=100"`
	Status   Status `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED EXPIRED REFUNDED COMPLETED"`
	EventID  int64  `form:"event_id" binding:"omitempty,gt=0"`
	UserID   int64  `form:"user_id" binding:"omitempty,gt=0"`
}

// Offset returns the row offset for the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// RequestOrigin carries client metadata captured at the HTTP layer.
type RequestOrigin struct {
	IPAddress string
	UserAgent string
}
