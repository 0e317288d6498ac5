package bookings

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

const maxBookingQuantity = 10

// WaitlistNotifier promotes waiting users when seats free up. Declared
// locally so the booking package does not import the waitlist package.
type WaitlistNotifier interface {
	NotifyNext(ctx context.Context, eventID int64, availableQuantity int) (int, error)
	MarkBooked(ctx context.Context, userID, eventID, bookingID int64) error
}

// EmailEnqueuer hands booking emails to the notification pipeline.
type EmailEnqueuer interface {
	EnqueueBookingConfirmation(ctx context.Context, recipient, reference string, eventID int64, quantity int, totalAmount float64, currency string) error
	EnqueueBookingCancellation(ctx context.Context, recipient, reference string, eventID int64, quantity int) error
}

// Service implements the booking lifecycle on top of the capacity ledger.
type Service interface {
	Create(ctx context.Context, userID int64, req *CreateBookingRequest, origin RequestOrigin) (*CreateBookingResponse, error)
	Confirm(ctx context.Context, bookingID, actorID int64, actorEmail string, isAdmin bool) (*BookingResponse, error)
	Cancel(ctx context.Context, bookingID, actorID int64, actorEmail string, isAdmin bool, reason string) (*BookingResponse, error)

	GetByID(ctx context.Context, bookingID, actorID int64, isAdmin bool) (*BookingResponse, error)
	GetByReference(ctx context.Context, reference string, actorID int64, isAdmin bool) (*BookingResponse, error)
	ListUserBookings(ctx context.Context, userID int64, q ListQuery) (*PaginatedBookings, error)
	GetAuditLog(ctx context.Context, bookingID, actorID int64, isAdmin bool) ([]AuditLogResponse, error)

	ListAllBookings(ctx context.Context, q ListQuery) (*PaginatedBookings, error)
	UpdateStatus(ctx context.Context, bookingID, adminID int64, newStatus Status, reason string) (*BookingResponse, error)
	Delete(ctx context.Context, bookingID, adminID int64) error
	GetStats(ctx context.Context, periodDays int) (*BookingStatsResponse, error)

	ExpirePending(ctx context.Context) (int, error)
}

// ServiceConfig tunes the booking lifecycle.
type ServiceConfig struct {
	HoldDuration    time.Duration
	DefaultCurrency string
	MaxPageSize     int
}

// DefaultServiceConfig returns the standard booking configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		HoldDuration:    15 * time.Minute,
		DefaultCurrency: "USD",
		MaxPageSize:     100,
	}
}

type service struct {
	db        *gorm.DB
	repo      Repository
	ledger    availability.Repository
	locks     *locker.Locker
	publisher eventbus.Publisher
	waitlist  WaitlistNotifier
	emails    EmailEnqueuer
	clock     clock.Clock
	config    *ServiceConfig
	log       *logger.Logger
}

// NewService creates a booking service. The waitlist notifier and email
// enqueuer are optional; the related side effects are skipped when nil.
func NewService(
	db *gorm.DB,
	repo Repository,
	ledger availability.Repository,
	locks *locker.Locker,
	publisher eventbus.Publisher,
	waitlist WaitlistNotifier,
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
		waitlist:  waitlist,
		emails:    emails,
		clock:     clk,
		config:    config,
		log:       log.WithComponent("bookings.service"),
	}
}

// transact runs fn inside a database transaction, binding repositories
// to it via WithTx. Without a database handle fn runs directly, which
// lets in-memory repositories back the service.
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
		metrics.LockTimeoutsTotal.WithLabelValues("booking").Inc()
		return apperrors.ErrResourceLocked.WithDetail("could not acquire %s, try again shortly", key)
	}
	return err
}

func (s *service) Create(ctx context.Context, userID int64, req *CreateBookingRequest, origin RequestOrigin) (*CreateBookingResponse, error) {
	if req.Quantity < 1 || req.Quantity > maxBookingQuantity {
		return nil, apperrors.Validationf("quantity must be between 1 and %d", maxBookingQuantity)
	}

	row, err := s.ledger.GetByEventID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrEventNotAvailable.WithDetail("event %d is not open for booking", req.EventID)
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	expiresAt := now.Add(s.config.HoldDuration)
	reference, err := NewBookingReference(now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	totalAmount := row.Price * float64(req.Quantity)
	booking := &Booking{
		UserID:           userID,
		EventID:          req.EventID,
		BookingReference: reference,
		Quantity:         req.Quantity,
		TotalAmount:      totalAmount,
		Currency:         s.config.DefaultCurrency,
		Status:           StatusPending,
		PaymentStatus:    PaymentPending,
		BookingDate:      now,
		ExpiresAt:        &expiresAt,
		Version:          1,
		Notes:            req.Notes,
		IPAddress:        origin.IPAddress,
		UserAgent:        origin.UserAgent,
		Items: []BookingItem{{
			TicketType:   "standard",
			PricePerItem: row.Price,
			Quantity:     req.Quantity,
			TotalPrice:   totalAmount,
		}},
	}

	lockKey := fmt.Sprintf("booking:event:%d", req.EventID)
	err = s.withLock(ctx, lockKey, func(ctx context.Context) error {
		return s.transact(ctx, func(tx *gorm.DB) error {
			if err := s.ledger.WithTx(tx).Reserve(ctx, req.EventID, req.Quantity); err != nil {
				return err
			}
			repo := s.repo.WithTx(tx)
			if err := repo.Create(ctx, booking); err != nil {
				return err
			}
			return repo.AppendAudit(ctx, &BookingAuditLog{
				BookingID: booking.ID,
				Action:    AuditActionCreate,
				FieldName: "status",
				NewValue:  string(StatusPending),
				ChangedBy: userID,
				ChangedAt: now,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishBooking(ctx, eventbus.ChannelBookingCreated, eventbus.TypeBookingCreated, booking)
	s.markWaitlistBooked(ctx, userID, req.EventID, booking.ID)
	metrics.BookingsTotal.WithLabelValues("created").Inc()
	s.log.LogBookingTransition(ctx, booking.ID, booking.EventID, userID, "", string(StatusPending))

	return &CreateBookingResponse{
		Booking:   booking.ToResponse(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) Confirm(ctx context.Context, bookingID, actorID int64, actorEmail string, isAdmin bool) (*BookingResponse, error) {
	var confirmed, expired *Booking

	lockKey := fmt.Sprintf("booking:confirm:%d", bookingID)
	err := s.withLock(ctx, lockKey, func(ctx context.Context) error {
		return s.transact(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			booking, err := repo.GetByIDForUpdate(ctx, bookingID)
			if err != nil {
				return err
			}
			if err := authorizeActor(booking, actorID, isAdmin); err != nil {
				return err
			}
			if booking.Status != StatusPending {
				return apperrors.ErrNotPending.WithDetail("booking %s is %s", booking.BookingReference, booking.Status)
			}

			now := s.clock.Now().UTC()
			if booking.ExpiresAt != nil && now.After(*booking.ExpiresAt) {
				// The hold lapsed before the sweeper reached it. The
				// expiry must commit even though the confirm fails, so
				// it happens here and the error is raised after.
				if err := s.expireInTx(ctx, tx, booking, actorID, now); err != nil {
					return err
				}
				expired = booking
				return nil
			}

			booking.Status = StatusConfirmed
			booking.PaymentStatus = PaymentCompleted
			booking.ConfirmedAt = &now
			booking.Version++
			if err := repo.Update(ctx, booking); err != nil {
				return err
			}
			if err := s.ledger.WithTx(tx).Confirm(ctx, booking.EventID, booking.Quantity); err != nil {
				return err
			}
			if err := repo.AppendAudit(ctx, &BookingAuditLog{
				BookingID: booking.ID,
				Action:    AuditActionConfirm,
				FieldName: "status",
				OldValue:  string(StatusPending),
				NewValue:  string(StatusConfirmed),
				ChangedBy: actorID,
				ChangedAt: now,
			}); err != nil {
				return err
			}
			confirmed = booking
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if expired != nil {
		s.publishBooking(ctx, eventbus.ChannelBookingExpired, eventbus.TypeBookingExpired, expired)
		s.notifyWaitlist(ctx, expired.EventID, expired.Quantity)
		metrics.BookingsTotal.WithLabelValues("expired").Inc()
		s.log.LogBookingTransition(ctx, expired.ID, expired.EventID, expired.UserID, string(StatusPending), string(StatusExpired))
		return nil, apperrors.ErrExpired.WithDetail("booking %s expired at %s", expired.BookingReference, expired.ExpiresAt.UTC().Format(time.RFC3339))
	}

	s.publishBooking(ctx, eventbus.ChannelBookingConfirmed, eventbus.TypeBookingConfirmed, confirmed)
	s.publishBooking(ctx, eventbus.ChannelBookingPaymentCompleted, eventbus.TypeBookingPaymentCompleted, confirmed)
	s.enqueueConfirmationEmail(ctx, confirmed, actorEmail)
	metrics.BookingsTotal.WithLabelValues("confirmed").Inc()
	s.log.LogBookingTransition(ctx, confirmed.ID, confirmed.EventID, confirmed.UserID, string(StatusPending), string(StatusConfirmed))

	return confirmed.ToResponse(), nil
}

func (s *service) Cancel(ctx context.Context, bookingID, actorID int64, actorEmail string, isAdmin bool, reason string) (*BookingResponse, error) {
	var (
		cancelled *Booking
		oldStatus Status
		released  bool
	)

	lockKey := fmt.Sprintf("booking:cancel:%d", bookingID)
	err := s.withLock(ctx, lockKey, func(ctx context.Context) error {
		return s.transact(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			booking, err := repo.GetByIDForUpdate(ctx, bookingID)
			if err != nil {
				return err
			}
			if err := authorizeActor(booking, actorID, isAdmin); err != nil {
				return err
			}
			if !booking.Status.CanBeCancelled() {
				return apperrors.ErrNotCancellable.WithDetail("booking %s is %s", booking.BookingReference, booking.Status)
			}

			oldStatus = booking.Status
			now := s.clock.Now().UTC()
			booking.Status = StatusCancelled
			booking.CancelledAt = &now
			booking.CancellationReason = reason
			booking.Version++
			if err := repo.Update(ctx, booking); err != nil {
				return err
			}

			// EXPIRED and REFUNDED bookings already gave their seats
			// back; cancelling them is record keeping only.
			switch oldStatus {
			case StatusPending:
				if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, false); err != nil {
					return err
				}
				released = true
			case StatusConfirmed:
				if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, true); err != nil {
					return err
				}
				released = true
			}

			if err := repo.AppendAudit(ctx, &BookingAuditLog{
				BookingID: booking.ID,
				Action:    AuditActionCancel,
				FieldName: "status",
				OldValue:  string(oldStatus),
				NewValue:  string(StatusCancelled),
				ChangedBy: actorID,
				ChangedAt: now,
				Reason:    reason,
			}); err != nil {
				return err
			}
			cancelled = booking
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishBooking(ctx, eventbus.ChannelBookingCancelled, eventbus.TypeBookingCancelled, cancelled)
	if released {
		s.notifyWaitlist(ctx, cancelled.EventID, cancelled.Quantity)
	}
	// Only the owner gets the email; an admin cancelling on a user's
	// behalf would otherwise mail the wrong inbox.
	if actorID == cancelled.UserID {
		s.enqueueCancellationEmail(ctx, cancelled, actorEmail)
	}
	metrics.BookingsTotal.WithLabelValues("cancelled").Inc()
	s.log.LogBookingTransition(ctx, cancelled.ID, cancelled.EventID, cancelled.UserID, string(oldStatus), string(StatusCancelled))

	return cancelled.ToResponse(), nil
}

func (s *service) GetByID(ctx context.Context, bookingID, actorID int64, isAdmin bool) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(booking, actorID, isAdmin); err != nil {
		return nil, err
	}
	return booking.ToResponse(), nil
}

func (s *service) GetByReference(ctx context.Context, reference string, actorID int64, isAdmin bool) (*BookingResponse, error) {
	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(booking, actorID, isAdmin); err != nil {
		return nil, err
	}
	return booking.ToResponse(), nil
}

func (s *service) ListUserBookings(ctx context.Context, userID int64, q ListQuery) (*PaginatedBookings, error) {
	q.normalize(s.config.MaxPageSize)
	rows, total, err := s.repo.ListByUser(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return paginated(rows, total, q), nil
}

func (s *service) GetAuditLog(ctx context.Context, bookingID, actorID int64, isAdmin bool) ([]AuditLogResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(booking, actorID, isAdmin); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListAudit(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	out := make([]AuditLogResponse, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].ToAuditResponse())
	}
	return out, nil
}

func (s *service) ListAllBookings(ctx context.Context, q ListQuery) (*PaginatedBookings, error) {
	q.normalize(s.config.MaxPageSize)
	rows, total, err := s.repo.ListAll(ctx, q)
	if err != nil {
		return nil, err
	}
	return paginated(rows, total, q), nil
}

// UpdateStatus lets an admin force a transition the state machine
// permits, moving ledger counters to match.
func (s *service) UpdateStatus(ctx context.Context, bookingID, adminID int64, newStatus Status, reason string) (*BookingResponse, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.Validationf("unknown status %q", newStatus)
	}

	var (
		updated   *Booking
		oldStatus Status
		freed     bool
	)
	err := s.transact(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !booking.Status.CanTransitionTo(newStatus) {
			return apperrors.ErrInvalidTransition.WithDetail("cannot transition booking %s from %s to %s", booking.BookingReference, booking.Status, newStatus)
		}

		oldStatus = booking.Status
		now := s.clock.Now().UTC()
		booking.Status = newStatus
		booking.Version++

		switch newStatus {
		case StatusConfirmed:
			booking.PaymentStatus = PaymentCompleted
			booking.ConfirmedAt = &now
			if err := s.ledger.WithTx(tx).Confirm(ctx, booking.EventID, booking.Quantity); err != nil {
				return err
			}
		case StatusCancelled:
			booking.CancelledAt = &now
			booking.CancellationReason = reason
			switch oldStatus {
			case StatusPending:
				if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, false); err != nil {
					return err
				}
				freed = true
			case StatusConfirmed:
				if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, true); err != nil {
					return err
				}
				freed = true
			}
		case StatusExpired:
			if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, false); err != nil {
				return err
			}
			freed = true
		case StatusRefunded:
			booking.PaymentStatus = PaymentRefunded
			if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, true); err != nil {
				return err
			}
			freed = true
		}

		if err := repo.Update(ctx, booking); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &BookingAuditLog{
			BookingID: booking.ID,
			Action:    AuditActionStatusChange,
			FieldName: "status",
			OldValue:  string(oldStatus),
			NewValue:  string(newStatus),
			ChangedBy: adminID,
			ChangedAt: now,
			Reason:    reason,
		}); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case StatusConfirmed:
		s.publishBooking(ctx, eventbus.ChannelBookingConfirmed, eventbus.TypeBookingConfirmed, updated)
		s.publishBooking(ctx, eventbus.ChannelBookingPaymentCompleted, eventbus.TypeBookingPaymentCompleted, updated)
	case StatusCancelled:
		s.publishBooking(ctx, eventbus.ChannelBookingCancelled, eventbus.TypeBookingCancelled, updated)
	case StatusExpired:
		s.publishBooking(ctx, eventbus.ChannelBookingExpired, eventbus.TypeBookingExpired, updated)
	}
	if freed {
		s.notifyWaitlist(ctx, updated.EventID, updated.Quantity)
	}
	s.log.LogBookingTransition(ctx, updated.ID, updated.EventID, updated.UserID, string(oldStatus), string(newStatus))

	return updated.ToResponse(), nil
}

// Delete removes a booking entirely, returning any capacity it still
// holds. Meant for administrative cleanup, not the user-facing flow.
func (s *service) Delete(ctx context.Context, bookingID, adminID int64) error {
	err := s.transact(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		switch booking.Status {
		case StatusPending:
			if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, false); err != nil {
				return err
			}
		case StatusConfirmed:
			if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, true); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, booking.ID)
	})
	if err != nil {
		return err
	}

	s.log.Warn("booking deleted by admin", "booking_id", bookingID, "admin_id", adminID)
	return nil
}

func (s *service) GetStats(ctx context.Context, periodDays int) (*BookingStatsResponse, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	since := s.clock.Now().UTC().AddDate(0, 0, -periodDays)
	stats, err := s.repo.GetStats(ctx, since)
	if err != nil {
		return nil, err
	}
	stats.PeriodDays = periodDays
	return stats, nil
}

// ExpirePending transitions every overdue pending booking to EXPIRED in
// one transaction, releasing its reserved seats. Events publish and the
// waitlist is poked only after the commit.
func (s *service) ExpirePending(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()

	var expired []Booking
	err := s.transact(ctx, func(tx *gorm.DB) error {
		expired = expired[:0]
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListExpiredPending(ctx, now)
		if err != nil {
			return err
		}
		for i := range rows {
			booking := &rows[i]
			if err := s.expireInTx(ctx, tx, booking, 0, now); err != nil {
				return err
			}
			expired = append(expired, *booking)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	freedByEvent := make(map[int64]int)
	for i := range expired {
		booking := &expired[i]
		s.publishBooking(ctx, eventbus.ChannelBookingExpired, eventbus.TypeBookingExpired, booking)
		metrics.BookingsTotal.WithLabelValues("expired").Inc()
		s.log.LogBookingTransition(ctx, booking.ID, booking.EventID, booking.UserID, string(StatusPending), string(StatusExpired))
		freedByEvent[booking.EventID] += booking.Quantity
	}
	for eventID, quantity := range freedByEvent {
		s.notifyWaitlist(ctx, eventID, quantity)
	}
	return len(expired), nil
}

// expireInTx flips a pending booking to EXPIRED and releases its hold.
// changedBy zero marks a sweeper action.
func (s *service) expireInTx(ctx context.Context, tx *gorm.DB, booking *Booking, changedBy int64, now time.Time) error {
	old := booking.Status
	booking.Status = StatusExpired
	booking.Version++

	repo := s.repo.WithTx(tx)
	if err := repo.Update(ctx, booking); err != nil {
		return err
	}
	if err := s.releaseCapacity(ctx, tx, booking.EventID, booking.Quantity, false); err != nil {
		return err
	}
	return repo.AppendAudit(ctx, &BookingAuditLog{
		BookingID: booking.ID,
		Action:    AuditActionExpire,
		FieldName: "status",
		OldValue:  string(old),
		NewValue:  string(StatusExpired),
		ChangedBy: changedBy,
		ChangedAt: now,
	})
}

// releaseCapacity returns seats to the ledger. A missing ledger row
// means the catalog already deleted the event, in which case the
// booking transition proceeds without a counter move.
func (s *service) releaseCapacity(ctx context.Context, tx *gorm.DB, eventID int64, quantity int, fromConfirmed bool) error {
	ledger := s.ledger.WithTx(tx)
	var err error
	if fromConfirmed {
		err = ledger.ReleaseConfirmed(ctx, eventID, quantity)
	} else {
		err = ledger.ReleaseReserved(ctx, eventID, quantity)
	}
	if err != nil && errors.Is(err, apperrors.ErrNotFound) {
		s.log.Warn("capacity release skipped, ledger row missing", "event_id", eventID, "quantity", quantity)
		return nil
	}
	return err
}

func (s *service) publishBooking(ctx context.Context, channel, msgType string, booking *Booking) {
	if s.publisher == nil {
		return
	}
	data := eventbus.BookingData{
		ID:                 booking.ID,
		EventID:            booking.EventID,
		UserID:             booking.UserID,
		BookingReference:   booking.BookingReference,
		Quantity:           booking.Quantity,
		TotalAmount:        booking.TotalAmount,
		Currency:           booking.Currency,
		Status:             string(booking.Status),
		PaymentStatus:      string(booking.PaymentStatus),
		CreatedAt:          eventbus.FormatTime(booking.CreatedAt),
		ExpiresAt:          eventbus.FormatTimePtr(booking.ExpiresAt),
		ConfirmedAt:        eventbus.FormatTimePtr(booking.ConfirmedAt),
		CancelledAt:        eventbus.FormatTimePtr(booking.CancelledAt),
		CancellationReason: booking.CancellationReason,
	}
	if booking.Status == StatusExpired {
		data.ExpiredAt = eventbus.FormatTime(s.clock.Now().UTC())
	}

	msg := eventbus.NewBookingMessage(msgType, data)
	if err := s.publisher.Publish(ctx, channel, msg); err != nil {
		s.log.WithError(err).Warn("failed to publish booking event", "channel", channel, "booking_id", booking.ID)
	}
}

func (s *service) notifyWaitlist(ctx context.Context, eventID int64, quantity int) {
	if s.waitlist == nil {
		return
	}
	if _, err := s.waitlist.NotifyNext(ctx, eventID, quantity); err != nil {
		s.log.WithError(err).Warn("waitlist notification failed", "event_id", eventID)
	}
}

func (s *service) markWaitlistBooked(ctx context.Context, userID, eventID, bookingID int64) {
	if s.waitlist == nil {
		return
	}
	if err := s.waitlist.MarkBooked(ctx, userID, eventID, bookingID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.log.WithError(err).Warn("failed to mark waitlist entry booked", "user_id", userID, "event_id", eventID)
	}
}

func (s *service) enqueueConfirmationEmail(ctx context.Context, booking *Booking, recipient string) {
	if s.emails == nil || recipient == "" {
		return
	}
	err := s.emails.EnqueueBookingConfirmation(ctx, recipient, booking.BookingReference, booking.EventID, booking.Quantity, booking.TotalAmount, booking.Currency)
	if err != nil {
		s.log.WithError(err).Warn("failed to enqueue confirmation email", "booking_id", booking.ID)
	}
}

func (s *service) enqueueCancellationEmail(ctx context.Context, booking *Booking, recipient string) {
	if s.emails == nil || recipient == "" {
		return
	}
	err := s.emails.EnqueueBookingCancellation(ctx, recipient, booking.BookingReference, booking.EventID, booking.Quantity)
	if err != nil {
		s.log.WithError(err).Warn("failed to enqueue cancellation email", "booking_id", booking.ID)
	}
}

func authorizeActor(booking *Booking, actorID int64, isAdmin bool) error {
	if isAdmin || booking.UserID == actorID {
		return nil
	}
	return apperrors.ErrForbidden.WithDetail("booking %d belongs to another user", booking.ID)
}

func (q *ListQuery) normalize(maxPageSize int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if maxPageSize > 0 && q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
}

func paginated(rows []Booking, total int64, q ListQuery) *PaginatedBookings {
	out := make([]BookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToResponse())
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	return &PaginatedBookings{
		Bookings:   out,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}
}
