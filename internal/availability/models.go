package availability

import (
	"time"
)

// EventAvailability is the per-event capacity ledger row. The catalog
// service owns master capacity; this row is the local replica the
// booking core mutates under optimistic versioning.
type EventAvailability struct {
	EventID       int64     `json:"event_id" gorm:"primaryKey;autoIncrement:false;column:event_id"`
	EventName     string    `json:"event_name" gorm:"size:255"`
	TotalCapacity int       `json:"total_capacity" gorm:"not null"`
	Available     int       `json:"available" gorm:"not null"`
	Reserved      int       `json:"reserved" gorm:"not null"`
	Confirmed     int       `json:"confirmed" gorm:"not null"`
	Price         float64   `json:"price" gorm:"not null"`
	Version       int64     `json:"version" gorm:"not null"`
	LastUpdated   time.Time `json:"last_updated" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (EventAvailability) TableName() string {
	return "event_availability"
}

func (a *EventAvailability) ToResponse() AvailabilityResponse {
	return AvailabilityResponse{
		EventID:       a.EventID,
		EventName:     a.EventName,
		TotalCapacity: a.TotalCapacity,
		Available:     a.Available,
		Reserved:      a.Reserved,
		Confirmed:     a.Confirmed,
		Price:         a.Price,
		Version:       a.Version,
		LastUpdated:   a.LastUpdated,
	}
}

// Utilization is the share of capacity currently held or sold.
func (a *EventAvailability) Utilization() float64 {
	if a.TotalCapacity <= 0 {
		return 0
	}
	return float64(a.Reserved+a.Confirmed) / float64(a.TotalCapacity) * 100
}
