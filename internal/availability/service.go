package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evently-booking/internal/eventbus"
	"evently-booking/internal/shared/apperrors"
	"evently-booking/pkg/cache"
	"evently-booking/pkg/logger"
)

// Service exposes ledger reads, admin capacity management, and the
// handlers the catalog subscriber dispatches into.
type Service interface {
	GetAvailability(ctx context.Context, eventID int64) (*AvailabilityResponse, error)
	CheckAvailability(ctx context.Context, eventID int64, quantity int) (*CheckAvailabilityResponse, error)

	// Admin operations
	InitializeCapacity(ctx context.Context, eventID int64, totalCapacity int) (*AvailabilityResponse, error)
	UpdateTotalCapacity(ctx context.Context, eventID int64, newTotal int) (*AvailabilityResponse, error)
	GetStats(ctx context.Context) (*StatsResponse, error)

	// Inbound catalog sync; handlers tolerate redelivery.
	ApplyEventCreated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error
	ApplyEventUpdated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error
	ApplyEventDeleted(ctx context.Context, eventID int64) error
}

// ServiceConfig contains configuration for the availability service
type ServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	KeyPrefix    string
}

// DefaultServiceConfig returns default service configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheEnabled: true,
		CacheTTL:     10 * time.Second,
		KeyPrefix:    "evently:",
	}
}

type service struct {
	repo      Repository
	cache     cache.Service
	publisher eventbus.Publisher
	config    *ServiceConfig
	log       *logger.Logger
}

// NewService creates a new availability service. The cache and
// publisher may be nil; reads then hit the database directly and
// capacity changes are not announced.
func NewService(repo Repository, cacheSvc cache.Service, publisher eventbus.Publisher, config *ServiceConfig, log *logger.Logger) Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &service{
		repo:      repo,
		cache:     cacheSvc,
		publisher: publisher,
		config:    config,
		log:       log,
	}
}

func (s *service) GetAvailability(ctx context.Context, eventID int64) (*AvailabilityResponse, error) {
	if !s.config.CacheEnabled || s.cache == nil {
		row, err := s.repo.GetByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		resp := row.ToResponse()
		return &resp, nil
	}

	var resp AvailabilityResponse
	err := s.cache.GetOrSet(ctx, s.cacheKey(eventID), s.config.CacheTTL, func() (interface{}, error) {
		row, err := s.repo.GetByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		return row.ToResponse(), nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) CheckAvailability(ctx context.Context, eventID int64, quantity int) (*CheckAvailabilityResponse, error) {
	if quantity < 1 {
		return nil, apperrors.Validationf("quantity must be at least 1")
	}

	resp, err := s.GetAvailability(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &CheckAvailabilityResponse{
		EventID:     eventID,
		Quantity:    quantity,
		IsAvailable: resp.Available >= quantity,
		Available:   resp.Available,
	}, nil
}

func (s *service) InitializeCapacity(ctx context.Context, eventID int64, totalCapacity int) (*AvailabilityResponse, error) {
	if totalCapacity < 0 {
		return nil, apperrors.Validationf("total_capacity must not be negative")
	}

	row := &EventAvailability{
		EventID:       eventID,
		TotalCapacity: totalCapacity,
		Available:     totalCapacity,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	s.publishAvailabilityUpdate(ctx, row)

	s.log.LogCapacityChange(ctx, eventID, "initialize", totalCapacity, row.Version)
	resp := row.ToResponse()
	return &resp, nil
}

func (s *service) UpdateTotalCapacity(ctx context.Context, eventID int64, newTotal int) (*AvailabilityResponse, error) {
	if newTotal < 0 {
		return nil, apperrors.Validationf("new_total_capacity must not be negative")
	}

	row, err := s.repo.UpdateTotal(ctx, eventID, newTotal)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)
	s.publishAvailabilityUpdate(ctx, row)

	s.log.LogCapacityChange(ctx, eventID, "update_total", newTotal, row.Version)
	resp := row.ToResponse()
	return &resp, nil
}

func (s *service) GetStats(ctx context.Context) (*StatsResponse, error) {
	return s.repo.GetStats(ctx)
}

func (s *service) ApplyEventCreated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error {
	existing, err := s.repo.GetByEventID(ctx, eventID)
	if err == nil {
		// Redelivery: keep counters untouched, backfill catalog info.
		if existing.EventName == "" && eventName != "" {
			if err := s.repo.UpdateCatalogInfo(ctx, eventID, eventName, existing.Price); err != nil {
				return err
			}
			s.invalidate(ctx, eventID)
		}
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	row := &EventAvailability{
		EventID:       eventID,
		EventName:     eventName,
		TotalCapacity: capacity,
		Available:     capacity,
		Price:         price,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.invalidate(ctx, eventID)
	return nil
}

func (s *service) ApplyEventUpdated(ctx context.Context, eventID int64, eventName string, capacity int, price float64) error {
	_, err := s.repo.UpdateTotal(ctx, eventID, capacity)
	if errors.Is(err, apperrors.ErrNotFound) {
		// The update raced ahead of the create; materialize the row.
		return s.ApplyEventCreated(ctx, eventID, eventName, capacity, price)
	}
	if err != nil {
		return err
	}

	if err := s.repo.UpdateCatalogInfo(ctx, eventID, eventName, price); err != nil {
		return err
	}

	s.invalidate(ctx, eventID)
	return nil
}

func (s *service) ApplyEventDeleted(ctx context.Context, eventID int64) error {
	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

func (s *service) cacheKey(eventID int64) string {
	return fmt.Sprintf("%savailability:event:%d", s.config.KeyPrefix, eventID)
}

func (s *service) invalidate(ctx context.Context, eventID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(eventID)); err != nil {
		s.log.WithError(err).Warn("failed to invalidate availability cache", "event_id", eventID)
	}
}

func (s *service) publishAvailabilityUpdate(ctx context.Context, row *EventAvailability) {
	if s.publisher == nil {
		return
	}
	msg := eventbus.NewWaitlistAvailabilityUpdated(row.EventID, row.Available, row.TotalCapacity)
	if err := s.publisher.Publish(ctx, eventbus.ChannelWaitlistAvailabilityUpdated, msg); err != nil {
		s.log.WithError(err).Warn("failed to publish availability update", "event_id", row.EventID)
	}
}
