package availability

import (
	"context"
	"errors"
	"time"

	"evently-booking/internal/shared/apperrors"
	"evently-booking/pkg/metrics"

	"gorm.io/gorm"
)

// Repository owns the capacity counters. Every counter mutation is a
// single conditional UPDATE whose WHERE clause carries the expected
// version and the operation's precondition; zero affected rows means
// the row vanished, the precondition failed, or a concurrent writer
// bumped the version first.
type Repository interface {
	// WithTx returns a repository bound to the given transaction so
	// ledger mutations can commit atomically with booking writes.
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, row *EventAvailability) error
	GetByEventID(ctx context.Context, eventID int64) (*EventAvailability, error)
	Delete(ctx context.Context, eventID int64) error

	Reserve(ctx context.Context, eventID int64, quantity int) error
	Confirm(ctx context.Context, eventID int64, quantity int) error
	ReleaseReserved(ctx context.Context, eventID int64, quantity int) error
	ReleaseConfirmed(ctx context.Context, eventID int64, quantity int) error

	UpdateTotal(ctx context.Context, eventID int64, newTotal int) (*EventAvailability, error)
	UpdateCatalogInfo(ctx context.Context, eventID int64, eventName string, price float64) error

	GetStats(ctx context.Context) (*StatsResponse, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *EventAvailability) error {
	if row.Version == 0 {
		row.Version = 1
	}
	row.LastUpdated = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		var existing EventAvailability
		lookupErr := r.db.WithContext(ctx).
			Where("event_id = ?", row.EventID).
			First(&existing).Error
		if lookupErr == nil {
			return apperrors.ErrAlreadyExists.WithDetail("availability for event %d already exists", row.EventID)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) GetByEventID(ctx context.Context, eventID int64) (*EventAvailability, error) {
	var row EventAvailability
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("availability for event %d not found", eventID)
		}
		return nil, apperrors.Internal(err)
	}
	return &row, nil
}

// Delete removes the local replica row. Absent rows are a no-op so the
// handler stays idempotent under redelivery.
func (r *repository) Delete(ctx context.Context, eventID int64) error {
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&EventAvailability{}).Error
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *repository) Reserve(ctx context.Context, eventID int64, quantity int) error {
	row, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if row.Available < quantity {
		return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets available, requested %d", row.Available, quantity)
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ? AND version = ? AND available >= ?", eventID, row.Version, quantity).
		Updates(map[string]interface{}{
			"available":    gorm.Expr("available - ?", quantity),
			"reserved":     gorm.Expr("reserved + ?", quantity),
			"version":      gorm.Expr("version + 1"),
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyZeroRows(ctx, eventID, func(row *EventAvailability) error {
			if row.Available < quantity {
				return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets available, requested %d", row.Available, quantity)
			}
			return nil
		})
	}
	return nil
}

func (r *repository) Confirm(ctx context.Context, eventID int64, quantity int) error {
	row, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if row.Reserved < quantity {
		return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets reserved, requested %d", row.Reserved, quantity)
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ? AND version = ? AND reserved >= ?", eventID, row.Version, quantity).
		Updates(map[string]interface{}{
			"reserved":     gorm.Expr("reserved - ?", quantity),
			"confirmed":    gorm.Expr("confirmed + ?", quantity),
			"version":      gorm.Expr("version + 1"),
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyZeroRows(ctx, eventID, func(row *EventAvailability) error {
			if row.Reserved < quantity {
				return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets reserved, requested %d", row.Reserved, quantity)
			}
			return nil
		})
	}
	return nil
}

func (r *repository) ReleaseReserved(ctx context.Context, eventID int64, quantity int) error {
	row, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if row.Reserved < quantity {
		return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets reserved, requested %d", row.Reserved, quantity)
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ? AND version = ? AND reserved >= ?", eventID, row.Version, quantity).
		Updates(map[string]interface{}{
			"reserved":     gorm.Expr("reserved - ?", quantity),
			"available":    gorm.Expr("available + ?", quantity),
			"version":      gorm.Expr("version + 1"),
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyZeroRows(ctx, eventID, func(row *EventAvailability) error {
			if row.Reserved < quantity {
				return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets reserved, requested %d", row.Reserved, quantity)
			}
			return nil
		})
	}
	return nil
}

func (r *repository) ReleaseConfirmed(ctx context.Context, eventID int64, quantity int) error {
	row, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if row.Confirmed < quantity {
		return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets confirmed, requested %d", row.Confirmed, quantity)
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ? AND version = ? AND confirmed >= ?", eventID, row.Version, quantity).
		Updates(map[string]interface{}{
			"confirmed":    gorm.Expr("confirmed - ?", quantity),
			"available":    gorm.Expr("available + ?", quantity),
			"version":      gorm.Expr("version + 1"),
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyZeroRows(ctx, eventID, func(row *EventAvailability) error {
			if row.Confirmed < quantity {
				return apperrors.ErrInsufficientCapacity.WithDetail("only %d tickets confirmed, requested %d", row.Confirmed, quantity)
			}
			return nil
		})
	}
	return nil
}

// UpdateTotal sets a new total and recomputes the free pool. Capacity
// already reserved or confirmed is never clawed back, so available
// clamps at zero when the new total undershoots current commitments.
func (r *repository) UpdateTotal(ctx context.Context, eventID int64, newTotal int) (*EventAvailability, error) {
	row, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ? AND version = ?", eventID, row.Version).
		Updates(map[string]interface{}{
			"total_capacity": newTotal,
			"available":      gorm.Expr("GREATEST(0, ? - reserved - confirmed)", newTotal),
			"version":        gorm.Expr("version + 1"),
			"last_updated":   time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyZeroRows(ctx, eventID, func(*EventAvailability) error { return nil })
	}

	return r.GetByEventID(ctx, eventID)
}

// UpdateCatalogInfo refreshes the replicated name and price without
// touching counters or version; it carries no capacity semantics.
func (r *repository) UpdateCatalogInfo(ctx context.Context, eventID int64, eventName string, price float64) error {
	updates := map[string]interface{}{
		"price":        price,
		"last_updated": time.Now().UTC(),
	}
	if eventName != "" {
		updates["event_name"] = eventName
	}

	result := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Where("event_id = ?", eventID).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithDetail("availability for event %d not found", eventID)
	}
	return nil
}

func (r *repository) GetStats(ctx context.Context) (*StatsResponse, error) {
	var stats StatsResponse

	err := r.db.WithContext(ctx).Model(&EventAvailability{}).
		Select(`COUNT(*) as total_events,
			COALESCE(SUM(total_capacity), 0) as total_capacity,
			COALESCE(SUM(available), 0) as total_available,
			COALESCE(SUM(reserved), 0) as total_reserved,
			COALESCE(SUM(confirmed), 0) as total_confirmed,
			COALESCE(SUM(CASE WHEN available = 0 THEN 1 ELSE 0 END), 0) as sold_out_events,
			COALESCE(AVG(CASE WHEN total_capacity > 0 THEN (reserved + confirmed) * 100.0 / total_capacity ELSE 0 END), 0) as average_utilization`).
		Scan(&stats).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &stats, nil
}

// classifyZeroRows re-reads the row after a conditional update matched
// nothing and maps the outcome: vanished row, failed precondition, or
// a version lost to a concurrent writer.
func (r *repository) classifyZeroRows(ctx context.Context, eventID int64, precondition func(*EventAvailability) error) error {
	var row EventAvailability
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithDetail("availability for event %d not found", eventID)
		}
		return apperrors.Internal(err)
	}
	if preErr := precondition(&row); preErr != nil {
		return preErr
	}
	metrics.LedgerConflictsTotal.Inc()
	return apperrors.ErrVersionConflict.WithDetail("availability for event %d changed concurrently", eventID)
}
