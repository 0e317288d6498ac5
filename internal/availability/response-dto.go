package availability

import "time"

type AvailabilityResponse struct {
	EventID       int64     `json:"event_id"`
	EventName     string    `json:"event_name"`
	TotalCapacity int       `json:"total_capacity"`
	Available     int       `json:"available"`
	Reserved      int       `json:"reserved"`
	Confirmed     int       `json:"confirmed"`
	Price         float64   `json:"price"`
	Version       int64     `json:"version"`
	LastUpdated   time.Time `json:"last_updated"`
}

type CheckAvailabilityResponse struct {
	EventID     int64 `json:"event_id"`
	Quantity    int   `json:"quantity"`
	IsAvailable bool  `json:"is_available"`
	Available   int   `json:"available"`
}

// StatsResponse aggregates ledger counters across all known events.
type StatsResponse struct {
	TotalEvents        int64   `json:"total_events"`
	TotalCapacity      int64   `json:"total_capacity"`
	TotalAvailable     int64   `json:"total_available"`
	TotalReserved      int64   `json:"total_reserved"`
	TotalConfirmed     int64   `json:"total_confirmed"`
	SoldOutEvents      int64   `json:"sold_out_events"`
	AverageUtilization float64 `json:"average_utilization"`
}
