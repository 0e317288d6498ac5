package waitlist

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evently-booking/internal/shared/apperrors"
)

// Repository handles persistence for waitlist entries and their audit
// trail. Priority ordering queries always scope to a single event.
type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, entry *WaitlistEntry) error
	GetByID(ctx context.Context, id int64) (*WaitlistEntry, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*WaitlistEntry, error)
	GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*WaitlistEntry, error)
	Update(ctx context.Context, entry *WaitlistEntry) error

	MaxActivePriority(ctx context.Context, eventID int64) (int, error)
	CountActiveAhead(ctx context.Context, eventID int64, priority int) (int64, error)

	ListPendingByPriority(ctx context.Context, eventID int64) ([]WaitlistEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]WaitlistEntry, error)
	ListByEvent(ctx context.Context, eventID int64) ([]WaitlistEntry, error)
	ListExpiredNotified(ctx context.Context, cutoff time.Time) ([]WaitlistEntry, error)

	AppendAudit(ctx context.Context, entry *WaitlistAuditLog) error
	ListAudit(ctx context.Context, entryID int64) ([]WaitlistAuditLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new waitlist repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *WaitlistEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*WaitlistEntry, error) {
	var entry WaitlistEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("waitlist entry %d not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return &entry, nil
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id int64) (*WaitlistEntry, error) {
	var entry WaitlistEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("waitlist entry %d not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return &entry, nil
}

func (r *repository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID int64) (*WaitlistEntry, error) {
	var entry WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status IN ?", userID, eventID, ActiveStatuses()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("no active waitlist entry for user %d on event %d", userID, eventID)
		}
		return nil, apperrors.Internal(err)
	}
	return &entry, nil
}

func (r *repository) Update(ctx context.Context, entry *WaitlistEntry) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) MaxActivePriority(ctx context.Context, eventID int64) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Select("COALESCE(MAX(priority), 0)").
		Where("event_id = ? AND status IN ?", eventID, ActiveStatuses()).
		Scan(&max).Error
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return max, nil
}

func (r *repository) CountActiveAhead(ctx context.Context, eventID int64, priority int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("event_id = ? AND status IN ? AND priority < ?", eventID, ActiveStatuses(), priority).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}

// ListPendingByPriority returns the pending queue for an event in
// serving order, locking the rows for the notify walk.
func (r *repository) ListPendingByPriority(ctx context.Context, eventID int64) ([]WaitlistEntry, error) {
	var rows []WaitlistEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND status = ?", eventID, StatusPending).
		Order("priority ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]WaitlistEntry, error) {
	var rows []WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID int64) ([]WaitlistEntry, error) {
	var rows []WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("priority ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

// ListExpiredNotified returns notified entries whose booking window has
// closed, locking the rows so concurrent sweeps do not double-expire.
func (r *repository) ListExpiredNotified(ctx context.Context, cutoff time.Time) ([]WaitlistEntry, error) {
	var rows []WaitlistEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", StatusNotified, cutoff).
		Order("expires_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

func (r *repository) AppendAudit(ctx context.Context, entry *WaitlistAuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) ListAudit(ctx context.Context, entryID int64) ([]WaitlistAuditLog, error) {
	var rows []WaitlistAuditLog
	err := r.db.WithContext(ctx).
		Where("waitlist_entry_id = ?", entryID).
		Order("changed_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}
