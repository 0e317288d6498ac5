package waitlist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"evently-booking/internal/availability"
	"evently-booking/internal/eventbus"
	"evently-booking/internal/shared/apperrors"
	"evently-booking/pkg/clock"
)

// fakeWaitlistStore is an in-memory Repository.
type fakeWaitlistStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*WaitlistEntry
	audits []WaitlistAuditLog
}

func newFakeWaitlistStore() *fakeWaitlistStore {
	return &fakeWaitlistStore{rows: make(map[int64]*WaitlistEntry)}
}

func copyEntry(e *WaitlistEntry) *WaitlistEntry {
	cp := *e
	return &cp
}

func (f *fakeWaitlistStore) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeWaitlistStore) Create(ctx context.Context, entry *WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	entry.CreatedAt = entry.JoinedAt
	entry.UpdatedAt = entry.JoinedAt
	f.rows[entry.ID] = copyEntry(entry)
	return nil
}

func (f *fakeWaitlistStore) GetByID(ctx context.Context, id int64) (*WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound.WithDetail("waitlist entry %d not found", id)
	}
	return copyEntry(entry), nil
}

func (f *fakeWaitlistStore) GetByIDForUpdate(ctx context.Context, id int64) (*WaitlistEntry, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeWaitlistStore) GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.rows {
		if entry.UserID == userID && entry.EventID == eventID && entry.Status.IsActive() {
			return copyEntry(entry), nil
		}
	}
	return nil, apperrors.ErrNotFound.WithDetail("no active waitlist entry for user %d on event %d", userID, eventID)
}

func (f *fakeWaitlistStore) Update(ctx context.Context, entry *WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[entry.ID]; !ok {
		return apperrors.ErrNotFound.WithDetail("waitlist entry %d not found", entry.ID)
	}
	f.rows[entry.ID] = copyEntry(entry)
	return nil
}

func (f *fakeWaitlistStore) MaxActivePriority(ctx context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, entry := range f.rows {
		if entry.EventID == eventID && entry.Status.IsActive() && entry.Priority > max {
			max = entry.Priority
		}
	}
	return max, nil
}

func (f *fakeWaitlistStore) CountActiveAhead(ctx context.Context, eventID int64, priority int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, entry := range f.rows {
		if entry.EventID == eventID && entry.Status.IsActive() && entry.Priority < priority {
			count++
		}
	}
	return count, nil
}

func (f *fakeWaitlistStore) ListPendingByPriority(ctx context.Context, eventID int64) ([]WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WaitlistEntry
	for _, entry := range f.rows {
		if entry.EventID == eventID && entry.Status == StatusPending {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (f *fakeWaitlistStore) ListByUser(ctx context.Context, userID int64) ([]WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WaitlistEntry
	for _, entry := range f.rows {
		if entry.UserID == userID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeWaitlistStore) ListByEvent(ctx context.Context, eventID int64) ([]WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WaitlistEntry
	for _, entry := range f.rows {
		if entry.EventID == eventID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (f *fakeWaitlistStore) ListExpiredNotified(ctx context.Context, cutoff time.Time) ([]WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WaitlistEntry
	for _, entry := range f.rows {
		if entry.Status == StatusNotified && entry.ExpiresAt != nil && entry.ExpiresAt.Before(cutoff) {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

func (f *fakeWaitlistStore) AppendAudit(ctx context.Context, entry *WaitlistAuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *entry
	cp.ID = int64(len(f.audits) + 1)
	f.audits = append(f.audits, cp)
	return nil
}

func (f *fakeWaitlistStore) ListAudit(ctx context.Context, entryID int64) ([]WaitlistAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WaitlistAuditLog
	for _, a := range f.audits {
		if a.EntryID == entryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeWaitlistStore) auditsFor(entryID int64) []WaitlistAuditLog {
	out, _ := f.ListAudit(context.Background(), entryID)
	return out
}

func (f *fakeWaitlistStore) entry(id int64) WaitlistEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.rows[id]
}

// fakeLedgerReader serves availability snapshots for join checks.
type fakeLedgerReader struct {
	mu   sync.Mutex
	rows map[int64]*availability.EventAvailability
}

func newFakeLedgerReader() *fakeLedgerReader {
	return &fakeLedgerReader{rows: make(map[int64]*availability.EventAvailability)}
}

func (f *fakeLedgerReader) seed(eventID int64, total, available int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[eventID] = &availability.EventAvailability{
		EventID:       eventID,
		EventName:     "Test Event",
		TotalCapacity: total,
		Available:     available,
		Confirmed:     total - available,
		Version:       1,
		LastUpdated:   time.Now().UTC(),
	}
}

func (f *fakeLedgerReader) GetByEventID(ctx context.Context, eventID int64) (*availability.EventAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[eventID]
	if !ok {
		return nil, apperrors.ErrNotFound.WithDetail("availability for event %d not found", eventID)
	}
	cp := *row
	return &cp, nil
}

type publishedMessage struct {
	channel string
	payload interface{}
}

type fakeBus struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (f *fakeBus) Publish(ctx context.Context, channel string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, publishedMessage{channel: channel, payload: message})
	return nil
}

func (f *fakeBus) byChannel(channel string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []interface{}
	for _, m := range f.messages {
		if m.channel == channel {
			out = append(out, m.payload)
		}
	}
	return out
}

type waitlistEmail struct {
	kind      string
	recipient string
	eventID   int64
}

type fakeWaitlistEmails struct {
	mu   sync.Mutex
	sent []waitlistEmail
}

func (f *fakeWaitlistEmails) record(kind, recipient string, eventID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, waitlistEmail{kind: kind, recipient: recipient, eventID: eventID})
}

func (f *fakeWaitlistEmails) EnqueueWaitlistJoined(ctx context.Context, recipient string, eventID int64, quantity, position int) error {
	f.record("joined", recipient, eventID)
	return nil
}

func (f *fakeWaitlistEmails) EnqueueWaitlistCancelled(ctx context.Context, recipient string, eventID int64) error {
	f.record("cancelled", recipient, eventID)
	return nil
}

func (f *fakeWaitlistEmails) EnqueueWaitlistNotification(ctx context.Context, recipient string, eventID int64, quantity int, expiresAt time.Time) error {
	f.record("notification", recipient, eventID)
	return nil
}

func (f *fakeWaitlistEmails) byKind(kind string) []waitlistEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []waitlistEmail
	for _, e := range f.sent {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type waitlistHarness struct {
	svc    Service
	store  *fakeWaitlistStore
	ledger *fakeLedgerReader
	bus    *fakeBus
	emails *fakeWaitlistEmails
	clock  *clock.Manual
	start  time.Time
}

func setupWaitlistService(t *testing.T) *waitlistHarness {
	t.Helper()

	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	h := &waitlistHarness{
		store:  newFakeWaitlistStore(),
		ledger: newFakeLedgerReader(),
		bus:    &fakeBus{},
		emails: &fakeWaitlistEmails{},
		clock:  clock.NewManual(start),
		start:  start,
	}
	h.svc = NewService(nil, h.store, h.ledger, nil, h.bus, h.emails, h.clock, DefaultServiceConfig(), nil)
	return h
}

func (h *waitlistHarness) mustJoin(t *testing.T, userID int64, eventID int64, quantity int) *JoinResponse {
	t.Helper()
	resp, err := h.svc.Join(context.Background(), userID, "fan@example.com", &JoinRequest{EventID: eventID, Quantity: quantity})
	require.NoError(t, err)
	return resp
}

func TestWaitlistJoinAssignsSequentialPriorities(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	first := h.mustJoin(t, 42, 1, 2)
	assert.Equal(t, 1, first.Entry.Priority)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "PENDING", first.Entry.Status)
	assert.True(t, first.Entry.JoinedAt.Equal(h.start))

	second := h.mustJoin(t, 43, 1, 1)
	assert.Equal(t, 2, second.Entry.Priority)
	assert.Equal(t, 2, second.Position)

	audits := h.store.auditsFor(first.Entry.ID)
	require.Len(t, audits, 1)
	assert.Equal(t, AuditActionJoin, audits[0].Action)
	assert.Equal(t, int64(42), audits[0].ChangedBy)

	joined := h.bus.byChannel(eventbus.ChannelWaitlistJoined)
	assert.Len(t, joined, 2)
	assert.Len(t, h.emails.byKind("joined"), 2)
}

func TestWaitlistJoinPreconditions(t *testing.T) {
	t.Run("rejects_duplicate_active", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 1, Quantity: 1})
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateActiveWaitlist))
	})

	t.Run("rejects_when_seats_available", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 5)

		_, err := h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 1, Quantity: 2})
		assert.True(t, errors.Is(err, apperrors.ErrHasAvailability))
	})

	t.Run("allows_join_when_remaining_seats_too_few", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 2)

		resp, err := h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 1, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Entry.Priority)
	})

	t.Run("rejects_unknown_event", func(t *testing.T) {
		h := setupWaitlistService(t)

		_, err := h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 9, Quantity: 1})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("rejects_bad_quantity", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		_, err := h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 1, Quantity: 0})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		_, err = h.svc.Join(context.Background(), 42, "fan@example.com", &JoinRequest{EventID: 1, Quantity: 11})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("allows_rejoin_after_cancel", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		first := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.Cancel(context.Background(), first.Entry.ID, 42, false)
		require.NoError(t, err)

		again := h.mustJoin(t, 42, 1, 2)
		assert.NotEqual(t, first.Entry.ID, again.Entry.ID)
		assert.Equal(t, 1, again.Entry.Priority)
	})
}

func TestWaitlistNotifyNextServesInPriorityOrder(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	first := h.mustJoin(t, 42, 1, 2)
	second := h.mustJoin(t, 43, 1, 2)
	third := h.mustJoin(t, 44, 1, 2)

	sent, err := h.svc.NotifyNext(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	wantExpiry := h.start.Add(30 * time.Minute)
	for _, id := range []int64{first.Entry.ID, second.Entry.ID} {
		entry := h.store.entry(id)
		assert.Equal(t, StatusNotified, entry.Status)
		require.NotNil(t, entry.ExpiresAt)
		assert.True(t, entry.ExpiresAt.Equal(wantExpiry))
		assert.Equal(t, int64(2), entry.Version)
	}
	assert.Equal(t, StatusPending, h.store.entry(third.Entry.ID).Status)

	published := h.bus.byChannel(eventbus.ChannelWaitlistNotificationsSent)
	require.Len(t, published, 1)
	msg, ok := published[0].(eventbus.WaitlistNotificationsSentMessage)
	require.True(t, ok)
	assert.Equal(t, 2, msg.NotificationsSent)

	assert.Len(t, h.emails.byKind("notification"), 2)
}

func TestWaitlistNotifyNextSkipsEntriesThatDontFit(t *testing.T) {
	t.Run("head_of_line_too_large", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		head := h.mustJoin(t, 42, 1, 5)
		next := h.mustJoin(t, 43, 1, 2)

		sent, err := h.svc.NotifyNext(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		assert.Equal(t, StatusPending, h.store.entry(head.Entry.ID).Status)
		assert.Equal(t, StatusNotified, h.store.entry(next.Entry.ID).Status)
	})

	t.Run("walk_continues_past_skip", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		big := h.mustJoin(t, 42, 1, 5)
		mid := h.mustJoin(t, 43, 1, 2)
		small := h.mustJoin(t, 44, 1, 1)

		sent, err := h.svc.NotifyNext(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)

		assert.Equal(t, StatusPending, h.store.entry(big.Entry.ID).Status)
		assert.Equal(t, StatusNotified, h.store.entry(mid.Entry.ID).Status)
		assert.Equal(t, StatusNotified, h.store.entry(small.Entry.ID).Status)
	})

	t.Run("zero_budget_is_a_noop", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)
		h.mustJoin(t, 42, 1, 1)

		sent, err := h.svc.NotifyNext(context.Background(), 1, 0)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, h.bus.byChannel(eventbus.ChannelWaitlistNotificationsSent))
	})
}

func TestWaitlistMarkBooked(t *testing.T) {
	t.Run("converts_notified_entry", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.NotifyNext(context.Background(), 1, 2)
		require.NoError(t, err)

		require.NoError(t, h.svc.MarkBooked(context.Background(), 42, 1, 77))

		entry := h.store.entry(resp.Entry.ID)
		assert.Equal(t, StatusBooked, entry.Status)
		assert.Equal(t, int64(3), entry.Version)

		audits := h.store.auditsFor(resp.Entry.ID)
		require.Len(t, audits, 3)
		assert.Equal(t, AuditActionBook, audits[2].Action)
		assert.Contains(t, audits[2].Reason, "77")
	})

	t.Run("leaves_pending_entry_queued", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		require.NoError(t, h.svc.MarkBooked(context.Background(), 42, 1, 77))

		assert.Equal(t, StatusPending, h.store.entry(resp.Entry.ID).Status)
	})

	t.Run("errors_without_active_entry", func(t *testing.T) {
		h := setupWaitlistService(t)

		err := h.svc.MarkBooked(context.Background(), 42, 1, 77)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestWaitlistCancel(t *testing.T) {
	t.Run("pending_entry", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		cancelled, err := h.svc.Cancel(context.Background(), resp.Entry.ID, 42, false)
		require.NoError(t, err)

		assert.Equal(t, "CANCELLED", cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.True(t, cancelled.CancelledAt.Equal(h.start))

		audits := h.store.auditsFor(resp.Entry.ID)
		require.Len(t, audits, 2)
		assert.Equal(t, AuditActionCancel, audits[1].Action)

		assert.Len(t, h.bus.byChannel(eventbus.ChannelWaitlistCancelled), 1)
		assert.Len(t, h.emails.byKind("cancelled"), 1)
	})

	t.Run("booked_entry_is_final", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.NotifyNext(context.Background(), 1, 2)
		require.NoError(t, err)
		require.NoError(t, h.svc.MarkBooked(context.Background(), 42, 1, 77))

		_, err = h.svc.Cancel(context.Background(), resp.Entry.ID, 42, false)
		assert.True(t, errors.Is(err, apperrors.ErrNotCancellable))
	})

	t.Run("cancel_twice_rejected", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.Cancel(context.Background(), resp.Entry.ID, 42, false)
		require.NoError(t, err)

		_, err = h.svc.Cancel(context.Background(), resp.Entry.ID, 42, false)
		assert.True(t, errors.Is(err, apperrors.ErrNotCancellable))
	})

	t.Run("expired_entry_can_be_cleared", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.NotifyNext(context.Background(), 1, 2)
		require.NoError(t, err)

		h.clock.Advance(31 * time.Minute)
		expired, err := h.svc.ExpireNotified(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, expired)

		cancelled, err := h.svc.Cancel(context.Background(), resp.Entry.ID, 42, false)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", cancelled.Status)
	})

	t.Run("requires_ownership", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)

		resp := h.mustJoin(t, 42, 1, 2)
		_, err := h.svc.Cancel(context.Background(), resp.Entry.ID, 43, false)
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))

		_, err = h.svc.Cancel(context.Background(), resp.Entry.ID, 99, true)
		assert.NoError(t, err)
	})
}

func TestWaitlistExpireNotifiedSweep(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	first := h.mustJoin(t, 42, 1, 1)
	second := h.mustJoin(t, 43, 1, 1)
	third := h.mustJoin(t, 44, 1, 1)

	// Promote the first two; the third stays pending.
	sent, err := h.svc.NotifyNext(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, sent)

	h.clock.Advance(31 * time.Minute)
	expired, err := h.svc.ExpireNotified(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.Equal(t, StatusExpired, h.store.entry(first.Entry.ID).Status)
	assert.Equal(t, StatusExpired, h.store.entry(second.Entry.ID).Status)
	assert.Equal(t, StatusPending, h.store.entry(third.Entry.ID).Status)

	audits := h.store.auditsFor(first.Entry.ID)
	require.Len(t, audits, 3)
	assert.Equal(t, AuditActionExpire, audits[2].Action)
	assert.Equal(t, int64(0), audits[2].ChangedBy)

	// Nothing left to expire on the next pass.
	expired, err = h.svc.ExpireNotified(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestWaitlistPositionTracksCancellations(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	first := h.mustJoin(t, 42, 1, 1)
	second := h.mustJoin(t, 43, 1, 1)
	third := h.mustJoin(t, 44, 1, 1)

	pos, err := h.svc.GetPosition(context.Background(), third.Entry.ID, 44, false)
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Position)

	_, err = h.svc.Cancel(context.Background(), second.Entry.ID, 43, false)
	require.NoError(t, err)

	pos, err = h.svc.GetPosition(context.Background(), third.Entry.ID, 44, false)
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Position)

	pos, err = h.svc.GetPosition(context.Background(), first.Entry.ID, 42, false)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Position)

	// A cancelled entry no longer holds a place.
	pos, err = h.svc.GetPosition(context.Background(), second.Entry.ID, 43, false)
	require.NoError(t, err)
	assert.Zero(t, pos.Position)
	assert.Equal(t, "CANCELLED", pos.Status)
}

func TestWaitlistCheckEligibility(t *testing.T) {
	t.Run("unknown_event", func(t *testing.T) {
		h := setupWaitlistService(t)

		resp, err := h.svc.CheckEligibility(context.Background(), 42, 9, 1)
		require.NoError(t, err)
		assert.False(t, resp.Eligible)
		assert.NotEmpty(t, resp.Reason)
	})

	t.Run("seats_available", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 4)

		resp, err := h.svc.CheckEligibility(context.Background(), 42, 1, 2)
		require.NoError(t, err)
		assert.False(t, resp.Eligible)
		assert.Equal(t, 4, resp.Available)
	})

	t.Run("duplicate_active_entry", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 0)
		h.mustJoin(t, 42, 1, 2)

		resp, err := h.svc.CheckEligibility(context.Background(), 42, 1, 2)
		require.NoError(t, err)
		assert.False(t, resp.Eligible)
	})

	t.Run("eligible", func(t *testing.T) {
		h := setupWaitlistService(t)
		h.ledger.seed(1, 10, 1)

		resp, err := h.svc.CheckEligibility(context.Background(), 42, 1, 2)
		require.NoError(t, err)
		assert.True(t, resp.Eligible)
		assert.Equal(t, 1, resp.Available)
	})

	t.Run("invalid_quantity", func(t *testing.T) {
		h := setupWaitlistService(t)

		_, err := h.svc.CheckEligibility(context.Background(), 42, 1, 0)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestWaitlistAuditTrailAcrossLifecycle(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	resp := h.mustJoin(t, 42, 1, 2)
	_, err := h.svc.NotifyNext(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkBooked(context.Background(), 42, 1, 77))

	audits, err := h.svc.GetAuditLog(context.Background(), resp.Entry.ID, 42, false)
	require.NoError(t, err)
	require.Len(t, audits, 3)
	assert.Equal(t, AuditActionJoin, audits[0].Action)
	assert.Equal(t, AuditActionNotify, audits[1].Action)
	assert.Equal(t, AuditActionBook, audits[2].Action)
	assert.Equal(t, int64(0), audits[1].ChangedBy)
}

func TestWaitlistGetByIDOwnership(t *testing.T) {
	h := setupWaitlistService(t)
	h.ledger.seed(1, 10, 0)

	resp := h.mustJoin(t, 42, 1, 2)

	_, err := h.svc.GetByID(context.Background(), resp.Entry.ID, 43, false)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	got, err := h.svc.GetByID(context.Background(), resp.Entry.ID, 99, true)
	require.NoError(t, err)
	assert.Equal(t, resp.Entry.ID, got.ID)

	entries, err := h.svc.ListUserEntries(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.Entry.ID, entries[0].ID)
}
