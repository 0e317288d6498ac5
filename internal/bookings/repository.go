package bookings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evently-booking/internal/shared/apperrors"
)

// Repository handles persistence for bookings and their audit trail.
type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id int64) error

	ListByUser(ctx context.Context, userID int64, q ListQuery) ([]Booking, int64, error)
	ListAll(ctx context.Context, q ListQuery) ([]Booking, int64, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]Booking, error)

	AppendAudit(ctx context.Context, entry *BookingAuditLog) error
	ListAudit(ctx context.Context, bookingID int64) ([]BookingAuditLog, error)

	GetStats(ctx context.Context, since time.Time) (*BookingStatsResponse, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("booking %d not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return &booking, nil
}

// GetByIDForUpdate loads a booking holding a row lock, serializing
// concurrent confirm, cancel and sweep transactions on the same row.
func (r *repository) GetByIDForUpdate(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("booking %d not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return &booking, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&booking, "booking_reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("booking %s not found", reference)
		}
		return nil, apperrors.Internal(err)
	}
	return &booking, nil
}

func (r *repository) Update(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(booking).Error
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Delete removes a booking with its items and audit trail. Callers are
// expected to run it inside a transaction.
func (r *repository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("booking_id = ?", id).Delete(&BookingAuditLog{}).Error; err != nil {
		return apperrors.Internal(err)
	}
	if err := db.Where("booking_id = ?", id).Delete(&BookingItem{}).Error; err != nil {
		return apperrors.Internal(err)
	}

	result := db.Where("id = ?", id).Delete(&Booking{})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithDetail("booking %d not found", id)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, q ListQuery) ([]Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	return r.list(ctx, query, q)
}

func (r *repository) ListAll(ctx context.Context, q ListQuery) ([]Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&Booking{})
	if q.UserID > 0 {
		query = query.Where("user_id = ?", q.UserID)
	}
	return r.list(ctx, query, q)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, q ListQuery) ([]Booking, int64, error) {
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.EventID > 0 {
		query = query.Where("event_id = ?", q.EventID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	var rows []Booking
	err := query.
		Preload("Items").
		Order("booking_date DESC").
		Limit(q.PageSize).
		Offset(q.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return rows, total, nil
}

// ListExpiredPending returns pending bookings whose hold deadline has
// passed, locking the rows so concurrent sweeps do not double-release.
func (r *repository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	var rows []Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", StatusPending, cutoff).
		Order("expires_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (r *repository) AppendAudit(ctx context.Context, entry *BookingAuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) ListAudit(ctx context.Context, bookingID int64) ([]BookingAuditLog, error) {
	var rows []BookingAuditLog
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("changed_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (r *repository) GetStats(ctx context.Context, since time.Time) (*BookingStatsResponse, error) {
	var totals struct {
		TotalBookings int64
		TotalTickets  int64
		TotalRevenue  float64
	}
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Select(`COUNT(*) as total_bookings,
			COALESCE(SUM(quantity), 0) as total_tickets,
			COALESCE(SUM(CASE WHEN status IN ('CONFIRMED', 'COMPLETED') THEN total_amount ELSE 0 END), 0) as total_revenue`).
		Where("created_at >= ?", since).
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	err = r.db.WithContext(ctx).
		Model(&Booking{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	stats := &BookingStatsResponse{
		TotalBookings: totals.TotalBookings,
		TotalTickets:  totals.TotalTickets,
		TotalRevenue:  totals.TotalRevenue,
		ByStatus:      make(map[string]int64, len(byStatus)),
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}
