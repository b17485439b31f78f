package models

import "time"

// TelemetryRecord holds one route's capacity and stop telemetry for a week.
// (route_code, week) is unique; route_code refers to routes logically only.
type TelemetryRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RouteCode string `gorm:"size:64;not null;uniqueIndex:idx_telemetry_route_week" json:"route_code"`
	Week      string `gorm:"size:32;not null;uniqueIndex:idx_telemetry_route_week" json:"week"`

	Available       *float64 `json:"available"`
	Loaded          *float64 `json:"loaded"`
	Used            *float64 `json:"used"`
	Total           *float64 `json:"total"`
	AvgStopDuration *float64 `json:"avg_stop_duration"`
	TripsOverFive   *int64   `json:"trips_over_five"`
	TotalTrips      *int64   `json:"total_trips"`

	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	EventTimestamp *time.Time `json:"event_timestamp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TelemetryRecord) TableName() string { return "telemetry_records" }
