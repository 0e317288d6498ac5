package bookings

// Status represents the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusRefunded  Status = "REFUNDED"
	StatusCompleted Status = "COMPLETED"
)

// PaymentStatus tracks the payment side of a booking independently of
// its lifecycle state.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// validTransitions maps each status to the set of statuses it may move to.
// CANCELLED and COMPLETED are terminal. EXPIRED and REFUNDED may still be
// cancelled for record keeping, which releases no capacity.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled, StatusCompleted, StatusRefunded},
	StatusExpired:   {StatusCancelled},
	StatusRefunded:  {StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid reports whether s is a known booking status.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine permits moving from
// s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanBeCancelled reports whether a booking in this status accepts a
// cancel request. Only CANCELLED and COMPLETED reject cancellation.
func (s Status) CanBeCancelled() bool {
	return s != StatusCancelled && s != StatusCompleted
}

// IsActive reports whether the booking still holds or consumes capacity.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}

// IsValid reports whether p is a known payment status.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (p PaymentStatus) String() string {
	return string(p)
}

// Audit log actions recorded on booking mutations.
const (
	AuditActionCreate       = "CREATE"
	AuditActionConfirm      = "CONFIRM"
	AuditActionCancel       = "CANCEL"
	AuditActionExpire       = "EXPIRE"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionDelete       = "DELETE"
)
