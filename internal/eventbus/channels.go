package eventbus

// Channel names shared with the other Evently services. The catalog
// announces on the events channels; the booking core owns the rest.
const (
	ChannelEventCreated = "evently:events:created"
	ChannelEventUpdated = "evently:events:updated"
	ChannelEventDeleted = "evently:events:deleted"

	ChannelBookingCreated          = "evently:bookings:created"
	ChannelBookingConfirmed        = "evently:bookings:confirmed"
	ChannelBookingCancelled        = "evently:bookings:cancelled"
	ChannelBookingExpired          = "evently:bookings:expired"
	ChannelBookingPaymentCompleted = "evently:bookings:payment_completed"

	ChannelWaitlistJoined              = "evently:bookings:waitlist_joined"
	ChannelWaitlistCancelled           = "evently:bookings:waitlist_cancelled"
	ChannelWaitlistNotificationsSent   = "evently:bookings:waitlist_notifications_sent"
	ChannelWaitlistAvailabilityUpdated = "evently:bookings:waitlist_availability_updated"
)

// Message type discriminators carried in the "type" field.
const (
	TypeEventCreated = "event_created"
	TypeEventUpdated = "event_updated"
	TypeEventDeleted = "event_deleted"

	TypeBookingCreated          = "booking_created"
	TypeBookingConfirmed        = "booking_confirmed"
	TypeBookingCancelled        = "booking_cancelled"
	TypeBookingExpired          = "booking_expired"
	TypeBookingPaymentCompleted = "booking_payment_completed"

	TypeWaitlistJoined              = "waitlist_joined"
	TypeWaitlistCancelled           = "waitlist_cancelled"
	TypeWaitlistNotificationsSent   = "waitlist_notifications_sent"
	TypeWaitlistAvailabilityUpdated = "waitlist_availability_updated"
)
