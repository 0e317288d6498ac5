package waitlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitlistStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to notified", StatusPending, StatusNotified, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to booked", StatusPending, StatusBooked, false},
		{"pending to expired", StatusPending, StatusExpired, false},
		{"notified to booked", StatusNotified, StatusBooked, true},
		{"notified to expired", StatusNotified, StatusExpired, true},
		{"notified to cancelled", StatusNotified, StatusCancelled, true},
		{"notified to pending", StatusNotified, StatusPending, false},
		{"expired to cancelled", StatusExpired, StatusCancelled, true},
		{"expired to notified", StatusExpired, StatusNotified, false},
		{"booked is terminal", StatusBooked, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"same status is not a transition", StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestWaitlistStatusIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusNotified.IsActive())

	assert.False(t, StatusBooked.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusExpired.IsActive())

	assert.ElementsMatch(t, []Status{StatusPending, StatusNotified}, ActiveStatuses())
}

func TestWaitlistStatusCanBeCancelled(t *testing.T) {
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusNotified.CanBeCancelled())
	assert.True(t, StatusExpired.CanBeCancelled())

	assert.False(t, StatusBooked.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
}

func TestWaitlistStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusNotified, StatusBooked, StatusCancelled, StatusExpired} {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, Status("QUEUED").IsValid())
	assert.False(t, Status("").IsValid())
}
