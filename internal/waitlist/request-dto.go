package waitlist

// JoinRequest is the payload for joining an event's waitlist.
type JoinRequest struct {
	EventID  int64  `json:"event_id" binding:"required,gt=0"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=10"`
	Notes    string `json:"notes,omitempty" binding:"max=1000"`
}
