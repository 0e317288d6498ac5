package waitlist

import "time"

// WaitlistEntryResponse is the API representation of a waitlist entry.
type WaitlistEntryResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	EventID     int64      `json:"event_id"`
	Quantity    int        `json:"quantity"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// JoinResponse wraps a fresh entry with its queue position.
type JoinResponse struct {
	Entry    *WaitlistEntryResponse `json:"entry"`
	Position int                    `json:"position"`
}

// PositionResponse reports where an entry currently sits in the queue.
type PositionResponse struct {
	EntryID  int64  `json:"entry_id"`
	EventID  int64  `json:"event_id"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

// EligibilityResponse answers whether a user could join right now.
type EligibilityResponse struct {
	EventID   int64  `json:"event_id"`
	Quantity  int    `json:"quantity"`
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
	Available int    `json:"available"`
}

// WaitlistAuditResponse is the API representation of one audit entry.
type WaitlistAuditResponse struct {
	ID        int64     `json:"id"`
	EntryID   int64     `json:"entry_id"`
	Action    string    `json:"action"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
}

// NotifyResponse reports how many entries a notify pass promoted.
type NotifyResponse struct {
	EventID           int64 `json:"event_id"`
	NotificationsSent int   `json:"notifications_sent"`
}

// ExpiryResponse reports how many notified entries a sweep expired.
type ExpiryResponse struct {
	ExpiredCount int `json:"expired_count"`
}
