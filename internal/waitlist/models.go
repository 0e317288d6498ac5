package waitlist

import (
	"time"
)

// WaitlistEntry is a user's place in an event's queue. Priority is a
// per-event monotonically increasing key assigned at join time; lower
// values are served first. The email is captured at join time so the
// notification pipeline does not depend on the identity service.
type WaitlistEntry struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64  `json:"user_id" gorm:"not null;index"`
	UserEmail string `json:"-" gorm:"size:255"`
	EventID   int64  `json:"event_id" gorm:"not null;index"`
	Quantity  int    `json:"quantity" gorm:"not null"`
	Priority  int    `json:"priority" gorm:"not null"`
	Status    Status `json:"status" gorm:"size:20;not null;index"`
	Notes     string `json:"notes,omitempty" gorm:"size:1000"`

	JoinedAt    time.Time  `json:"joined_at" gorm:"not null"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Version   int64     `json:"version" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// WaitlistAuditLog is an append-only record of a waitlist entry
// mutation. ChangedBy zero marks system actions.
type WaitlistAuditLog struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID   int64     `json:"entry_id" gorm:"column:waitlist_entry_id;not null;index"`
	Action    string    `json:"action" gorm:"size:30;not null"`
	OldValue  string    `json:"old_value,omitempty" gorm:"size:500"`
	NewValue  string    `json:"new_value,omitempty" gorm:"size:500"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at" gorm:"not null"`
	Reason    string    `json:"reason,omitempty" gorm:"size:500"`
}

func (WaitlistAuditLog) TableName() string {
	return "waitlist_audit_logs"
}

// ToResponse converts the entry to its API representation.
func (e *WaitlistEntry) ToResponse() *WaitlistEntryResponse {
	return &WaitlistEntryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		EventID:     e.EventID,
		Quantity:    e.Quantity,
		Priority:    e.Priority,
		Status:      string(e.Status),
		Notes:       e.Notes,
		JoinedAt:    e.JoinedAt,
		NotifiedAt:  e.NotifiedAt,
		ExpiresAt:   e.ExpiresAt,
		CancelledAt: e.CancelledAt,
	}
}

// ToAuditResponse converts an audit row to its API representation.
func (a *WaitlistAuditLog) ToAuditResponse() WaitlistAuditResponse {
	return WaitlistAuditResponse{
		ID:        a.ID,
		EntryID:   a.EntryID,
		Action:    a.Action,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
		ChangedBy: a.ChangedBy,
		ChangedAt: a.ChangedAt,
		Reason:    a.Reason,
	}
}
