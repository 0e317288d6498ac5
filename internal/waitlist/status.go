package waitlist

// Status represents the lifecycle state of a waitlist entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusNotified  Status = "NOTIFIED"
	StatusBooked    Status = "BOOKED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// validTransitions maps each status to the statuses it may move to.
// BOOKED and CANCELLED are terminal. An EXPIRED entry may still be
// cancelled so users can clear it from their list.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusNotified, StatusCancelled},
	StatusNotified:  {StatusBooked, StatusExpired, StatusCancelled},
	StatusExpired:   {StatusCancelled},
	StatusBooked:    {},
	StatusCancelled: {},
}

// IsValid reports whether s is a known waitlist status.
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

// IsActive reports whether the entry occupies a queue slot. Active
// entries block duplicate joins and count toward queue positions.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusNotified
}

// CanBeCancelled reports whether a cancel request is accepted.
func (s Status) CanBeCancelled() bool {
	return s != StatusCancelled && s != StatusBooked
}

func (s Status) String() string {
	return string(s)
}

// ActiveStatuses returns the statuses considered active, matching the
// partial unique indexes on the waitlist table.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusNotified}
}

// Audit log actions recorded on waitlist mutations.
const (
	AuditActionJoin   = "JOIN"
	AuditActionNotify = "NOTIFY"
	AuditActionCancel = "CANCEL"
	AuditActionExpire = "EXPIRE"
	AuditActionBook   = "BOOK"
)
