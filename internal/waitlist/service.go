package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"evently-booking/internal/availability"
	"evently-booking/internal/eventbus"
	"evently-booking/internal/shared/apperrors"
	"evently-booking/pkg/clock"
	"evently-booking/pkg/locker"
	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"
)

const maxWaitlistQuantity = 10

// LedgerReader exposes the availability lookups the waitlist needs.
// The waitlist never mutates the ledger; freed seats flow back through
// the booking lifecycle.
type LedgerReader interface {
	GetByEventID(ctx context.Context, eventID int64) (*availability.EventAvailability, error)
}

// EmailEnqueuer hands waitlist emails to the notification pipeline.
type EmailEnqueuer interface {
	EnqueueWaitlistJoined(ctx context.Context, recipient string, eventID int64, quantity, position int) error
	EnqueueWaitlistCancelled(ctx context.Context, recipient string, eventID int64) error
	EnqueueWaitlistNotification(ctx context.Context, recipient string, eventID int64, quantity int, expiresAt time.Time) error
}

// Service manages per-event waiting queues. Promotion is strictly by
// priority; an entry asking for more seats than a pass frees is skipped
// rather than blocking the entries behind it.
type Service interface {
	Join(ctx context.Context, userID int64, userEmail string, req *JoinRequest) (*JoinResponse, error)
	Cancel(ctx context.Context, entryID, actorID int64, isAdmin bool) (*WaitlistEntryResponse, error)

	GetByID(ctx context.Context, entryID, actorID int64, isAdmin bool) (*WaitlistEntryResponse, error)
	ListUserEntries(ctx context.Context, userID int64) ([]WaitlistEntryResponse, error)
	GetPosition(ctx context.Context, entryID, actorID int64, isAdmin bool) (*PositionResponse, error)
	GetAuditLog(ctx context.Context, entryID, actorID int64, isAdmin bool) ([]WaitlistAuditResponse, error)
	CheckEligibility(ctx context.Context, userID, eventID int64, quantity int) (*EligibilityResponse, error)

	ListEventEntries(ctx context.Context, eventID int64) ([]WaitlistEntryResponse, error)
	NotifyNext(ctx context.Context, eventID int64, availableQuantity int) (int, error)
	MarkBooked(ctx context.Context, userID, eventID, bookingID int64) error

	ExpireNotified(ctx context.Context) (int, error)
}

// ServiceConfig tunes the waitlist lifecycle.
type ServiceConfig struct {
	// NotificationWindow is how long a notified user has to book
	// before the entry expires.
	NotificationWindow time.Duration
}

// DefaultServiceConfig returns the standard waitlist configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		NotificationWindow: 30 * time.Minute,
	}
}

type service struct {
	db        *gorm.DB
	repo      Repository
	ledger    LedgerReader
	locks     *locker.Locker
	publisher eventbus.Publisher
	emails    EmailEnqueuer
	clock     clock.Clock
	config    *ServiceConfig
	log       *logger.Logger
}

// NewService creates a waitlist service. The email enqueuer is
// optional; notification emails are skipped when nil.
func NewService(
	db *gorm.DB,
	repo Repository,
	ledger LedgerReader,
	locks *locker.Locker,
	publisher eventbus.Publisher,
	emails EmailEnqueuer,
	clk clock.Clock,
	config *ServiceConfig,
	log *logger.Logger,
) Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		locks:     locks,
		publisher: publisher,
		emails:    emails,
		clock:     clk,
		config:    config,
		log:       log.WithComponent("waitlist.service"),
	}
}

func (s *service) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locks == nil {
		return fn(ctx)
	}
	err := s.locks.WithLock(ctx, key, fn)
	if errors.Is(err, locker.ErrNotAcquired) {
		metrics.LockTimeoutsTotal.WithLabelValues("waitlist").Inc()
		return apperrors.ErrResourceLocked.WithDetail("could not acquire %s, try again shortly", key)
	}
	return err
}

// Join appends the user to an event's queue. The event lock serializes
// concurrent joins so priorities stay dense and the duplicate check
// holds; the partial unique indexes back both up at the database level.
func (s *service) Join(ctx context.Context, userID int64, userEmail string, req *JoinRequest) (*JoinResponse, error) {
	if req.Quantity < 1 || req.Quantity > maxWaitlistQuantity {
		return nil, apperrors.Validationf("quantity must be between 1 and %d", maxWaitlistQuantity)
	}

	var entry *WaitlistEntry
	lockKey := fmt.Sprintf("waitlist:event:%d", req.EventID)
	err := s.withLock(ctx, lockKey, func(ctx context.Context) error {
		if existing, err := s.repo.GetActiveByUserAndEvent(ctx, userID, req.EventID); err == nil {
			return apperrors.ErrDuplicateActiveWaitlist.WithDetail("waitlist entry %d for event %d is still active", existing.ID, req.EventID)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		row, err := s.ledger.GetByEventID(ctx, req.EventID)
		if err != nil {
			return err
		}
		if row.Available >= req.Quantity {
			return apperrors.ErrHasAvailability.WithDetail("event %d has %d seats available, book directly", req.EventID, row.Available)
		}

		return s.transact(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			maxPriority, err := repo.MaxActivePriority(ctx, req.EventID)
			if err != nil {
				return err
			}

			now := s.clock.Now().UTC()
			entry = &WaitlistEntry{
				UserID:    userID,
				UserEmail: userEmail,
				EventID:   req.EventID,
				Quantity:  req.Quantity,
				Priority:  maxPriority + 1,
				Status:    StatusPending,
				Notes:     req.Notes,
				JoinedAt:  now,
				Version:   1,
			}
			if err := repo.Create(ctx, entry); err != nil {
				return err
			}
			return repo.AppendAudit(ctx, &WaitlistAuditLog{
				EntryID:   entry.ID,
				Action:    AuditActionJoin,
				NewValue:  string(StatusPending),
				ChangedBy: userID,
				ChangedAt: now,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	position := s.positionOf(ctx, entry)
	s.publishWaitlist(ctx, eventbus.ChannelWaitlistJoined, eventbus.TypeWaitlistJoined, entry)
	if s.emails != nil && entry.UserEmail != "" {
		if err := s.emails.EnqueueWaitlistJoined(ctx, entry.UserEmail, entry.EventID, entry.Quantity, position); err != nil {
			s.log.WithError(err).Warn("failed to enqueue waitlist joined email", "entry_id", entry.ID)
		}
	}
	metrics.WaitlistTotal.WithLabelValues("joined").Inc()
	s.log.LogWaitlistTransition(ctx, entry.ID, entry.EventID, userID, "", string(StatusPending))

	return &JoinResponse{Entry: entry.ToResponse(), Position: position}, nil
}

// Cancel withdraws an entry from the queue. Booked entries are final;
// everything else, expired ones included, can still be cancelled.
// Later entries keep their priorities, so cancelling simply moves
// everyone behind up one position.
func (s *service) Cancel(ctx context.Context, entryID, actorID int64, isAdmin bool) (*WaitlistEntryResponse, error) {
	var (
		updated   *WaitlistEntry
		oldStatus Status
	)
	lockKey := fmt.Sprintf("waitlist:cancel:%d", entryID)
	err := s.withLock(ctx, lockKey, func(ctx context.Context) error {
		return s.transact(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			entry, err := repo.GetByIDForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if err := authorizeActor(entry, actorID, isAdmin); err != nil {
				return err
			}
			if !entry.Status.CanBeCancelled() {
				return apperrors.ErrNotCancellable.WithDetail("waitlist entry %d is %s", entry.ID, entry.Status)
			}

			now := s.clock.Now().UTC()
			oldStatus = entry.Status
			entry.Status = StatusCancelled
			entry.CancelledAt = &now
			entry.Version++

			if err := repo.Update(ctx, entry); err != nil {
				return err
			}
			if err := repo.AppendAudit(ctx, &WaitlistAuditLog{
				EntryID:   entry.ID,
				Action:    AuditActionCancel,
				OldValue:  string(oldStatus),
				NewValue:  string(StatusCancelled),
				ChangedBy: actorID,
				ChangedAt: now,
			}); err != nil {
				return err
			}
			updated = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishWaitlist(ctx, eventbus.ChannelWaitlistCancelled, eventbus.TypeWaitlistCancelled, updated)
	if s.emails != nil && updated.UserEmail != "" {
		if err := s.emails.EnqueueWaitlistCancelled(ctx, updated.UserEmail, updated.EventID); err != nil {
			s.log.WithError(err).Warn("failed to enqueue waitlist cancelled email", "entry_id", updated.ID)
		}
	}
	metrics.WaitlistTotal.WithLabelValues("cancelled").Inc()
	s.log.LogWaitlistTransition(ctx, updated.ID, updated.EventID, updated.UserID, string(oldStatus), string(StatusCancelled))

	return updated.ToResponse(), nil
}

func (s *service) GetByID(ctx context.Context, entryID, actorID int64, isAdmin bool) (*WaitlistEntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(entry, actorID, isAdmin); err != nil {
		return nil, err
	}
	return entry.ToResponse(), nil
}

func (s *service) ListUserEntries(ctx context.Context, userID int64) ([]WaitlistEntryResponse, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

// GetPosition reports the entry's 1-based place among the event's
// active entries. Inactive entries report position zero.
func (s *service) GetPosition(ctx context.Context, entryID, actorID int64, isAdmin bool) (*PositionResponse, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(entry, actorID, isAdmin); err != nil {
		return nil, err
	}

	resp := &PositionResponse{
		EntryID: entry.ID,
		EventID: entry.EventID,
		Status:  string(entry.Status),
	}
	if entry.Status.IsActive() {
		ahead, err := s.repo.CountActiveAhead(ctx, entry.EventID, entry.Priority)
		if err != nil {
			return nil, err
		}
		resp.Position = int(ahead) + 1
	}
	return resp, nil
}

func (s *service) GetAuditLog(ctx context.Context, entryID, actorID int64, isAdmin bool) ([]WaitlistAuditResponse, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(entry, actorID, isAdmin); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAudit(ctx, entryID)
	if err != nil {
		return nil, err
	}
	out := make([]WaitlistAuditResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToAuditResponse())
	}
	return out, nil
}

// CheckEligibility answers whether joining would succeed right now.
// It never fails on a sold-out or unknown event; the answer rides in
// the eligible flag and reason instead.
func (s *service) CheckEligibility(ctx context.Context, userID, eventID int64, quantity int) (*EligibilityResponse, error) {
	if quantity < 1 || quantity > maxWaitlistQuantity {
		return nil, apperrors.Validationf("quantity must be between 1 and %d", maxWaitlistQuantity)
	}

	resp := &EligibilityResponse{EventID: eventID, Quantity: quantity}

	row, err := s.ledger.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			resp.Reason = "event is not open for booking"
			return resp, nil
		}
		return nil, err
	}
	resp.Available = row.Available

	if row.Available >= quantity {
		resp.Reason = "seats are available, book directly"
		return resp, nil
	}

	if _, err := s.repo.GetActiveByUserAndEvent(ctx, userID, eventID); err == nil {
		resp.Reason = "you already have an active entry for this event"
		return resp, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	resp.Eligible = true
	return resp, nil
}

func (s *service) ListEventEntries(ctx context.Context, eventID int64) ([]WaitlistEntryResponse, error) {
	rows, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

// NotifyNext promotes pending entries in priority order until the
// freed quantity runs out. An entry wanting more seats than remain in
// the budget is skipped and keeps its place for the next pass. Returns
// the number of entries promoted.
func (s *service) NotifyNext(ctx context.Context, eventID int64, availableQuantity int) (int, error) {
	if availableQuantity <= 0 {
		return 0, nil
	}

	var promoted []WaitlistEntry
	lockKey := fmt.Sprintf("waitlist:notify:%d", eventID)
	err := s.withLock(ctx, lockKey, func(ctx context.Context) error {
		return s.transact(ctx, func(tx *gorm.DB) error {
			promoted = promoted[:0]
			repo := s.repo.WithTx(tx)
			pending, err := repo.ListPendingByPriority(ctx, eventID)
			if err != nil {
				return err
			}

			now := s.clock.Now().UTC()
			expiresAt := now.Add(s.config.NotificationWindow)
			remaining := availableQuantity
			for i := range pending {
				if remaining <= 0 {
					break
				}
				entry := &pending[i]
				if entry.Quantity > remaining {
					continue
				}

				entry.Status = StatusNotified
				entry.NotifiedAt = &now
				entry.ExpiresAt = &expiresAt
				entry.Version++
				if err := repo.Update(ctx, entry); err != nil {
					return err
				}
				if err := repo.AppendAudit(ctx, &WaitlistAuditLog{
					EntryID:   entry.ID,
					Action:    AuditActionNotify,
					OldValue:  string(StatusPending),
					NewValue:  string(StatusNotified),
					ChangedBy: 0,
					ChangedAt: now,
				}); err != nil {
					return err
				}

				remaining -= entry.Quantity
				promoted = append(promoted, *entry)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	for i := range promoted {
		entry := &promoted[i]
		if s.emails != nil && entry.UserEmail != "" && entry.ExpiresAt != nil {
			if err := s.emails.EnqueueWaitlistNotification(ctx, entry.UserEmail, entry.EventID, entry.Quantity, *entry.ExpiresAt); err != nil {
				s.log.WithError(err).Warn("failed to enqueue waitlist notification email", "entry_id", entry.ID)
			}
		}
		metrics.WaitlistTotal.WithLabelValues("notified").Inc()
		s.log.LogWaitlistTransition(ctx, entry.ID, entry.EventID, entry.UserID, string(StatusPending), string(StatusNotified))
	}
	if len(promoted) > 0 && s.publisher != nil {
		msg := eventbus.NewWaitlistNotificationsSent(eventID, len(promoted))
		if err := s.publisher.Publish(ctx, eventbus.ChannelWaitlistNotificationsSent, msg); err != nil {
			s.log.WithError(err).Warn("failed to publish notifications sent event", "event_id", eventID)
		}
	}
	return len(promoted), nil
}

// MarkBooked converts the user's notified entry to BOOKED after they
// completed a booking. Pending entries stay queued; a booking made
// while still pending does not consume the waitlist spot.
func (s *service) MarkBooked(ctx context.Context, userID, eventID, bookingID int64) error {
	var marked *WaitlistEntry
	err := s.transact(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.GetActiveByUserAndEvent(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if entry.Status != StatusNotified {
			return nil
		}

		locked, err := repo.GetByIDForUpdate(ctx, entry.ID)
		if err != nil {
			return err
		}
		if locked.Status != StatusNotified {
			return nil
		}

		now := s.clock.Now().UTC()
		locked.Status = StatusBooked
		locked.Version++
		if err := repo.Update(ctx, locked); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &WaitlistAuditLog{
			EntryID:   locked.ID,
			Action:    AuditActionBook,
			OldValue:  string(StatusNotified),
			NewValue:  string(StatusBooked),
			ChangedBy: userID,
			ChangedAt: now,
			Reason:    fmt.Sprintf("booking %d", bookingID),
		}); err != nil {
			return err
		}
		marked = locked
		return nil
	})
	if err != nil {
		return err
	}

	if marked != nil {
		metrics.WaitlistTotal.WithLabelValues("booked").Inc()
		s.log.LogWaitlistTransition(ctx, marked.ID, marked.EventID, marked.UserID, string(StatusNotified), string(StatusBooked))
	}
	return nil
}

// ExpireNotified lapses notified entries whose booking window closed.
// No capacity moves here: the seats were never held for them, only
// offered.
func (s *service) ExpireNotified(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()

	var expired []WaitlistEntry
	err := s.transact(ctx, func(tx *gorm.DB) error {
		expired = expired[:0]
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListExpiredNotified(ctx, now)
		if err != nil {
			return err
		}
		for i := range rows {
			entry := &rows[i]
			entry.Status = StatusExpired
			entry.Version++
			if err := repo.Update(ctx, entry); err != nil {
				return err
			}
			if err := repo.AppendAudit(ctx, &WaitlistAuditLog{
				EntryID:   entry.ID,
				Action:    AuditActionExpire,
				OldValue:  string(StatusNotified),
				NewValue:  string(StatusExpired),
				ChangedBy: 0,
				ChangedAt: now,
			}); err != nil {
				return err
			}
			expired = append(expired, *entry)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range expired {
		entry := &expired[i]
		metrics.WaitlistTotal.WithLabelValues("expired").Inc()
		s.log.LogWaitlistTransition(ctx, entry.ID, entry.EventID, entry.UserID, string(StatusNotified), string(StatusExpired))
	}
	return len(expired), nil
}

// positionOf is a best effort read for the join response; the position
// endpoint is the authoritative source.
func (s *service) positionOf(ctx context.Context, entry *WaitlistEntry) int {
	ahead, err := s.repo.CountActiveAhead(ctx, entry.EventID, entry.Priority)
	if err != nil {
		s.log.WithError(err).Warn("failed to compute queue position", "entry_id", entry.ID)
		return 0
	}
	return int(ahead) + 1
}

func (s *service) publishWaitlist(ctx context.Context, channel, msgType string, entry *WaitlistEntry) {
	if s.publisher == nil {
		return
	}
	data := eventbus.WaitlistData{
		ID:          entry.ID,
		EventID:     entry.EventID,
		UserID:      entry.UserID,
		Quantity:    entry.Quantity,
		Priority:    entry.Priority,
		Status:      string(entry.Status),
		JoinedAt:    eventbus.FormatTime(entry.JoinedAt),
		NotifiedAt:  eventbus.FormatTimePtr(entry.NotifiedAt),
		ExpiresAt:   eventbus.FormatTimePtr(entry.ExpiresAt),
		CancelledAt: eventbus.FormatTimePtr(entry.CancelledAt),
	}
	msg := eventbus.NewWaitlistMessage(msgType, data)
	if err := s.publisher.Publish(ctx, channel, msg); err != nil {
		s.log.WithError(err).Warn("failed to publish waitlist event", "channel", channel, "entry_id", entry.ID)
	}
}

func authorizeActor(entry *WaitlistEntry, actorID int64, isAdmin bool) error {
	if isAdmin || entry.UserID == actorID {
		return nil
	}
	return apperrors.ErrForbidden.WithDetail("waitlist entry %d belongs to another user", entry.ID)
}

func toResponses(rows []WaitlistEntry) []WaitlistEntryResponse {
	out := make([]WaitlistEntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToResponse())
	}
	return out
}
