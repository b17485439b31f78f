package models

import "time"

// PerformanceRecord carries the externally supplied performance variation
// for a route and week.
type PerformanceRecord struct {
	ID                   uint     `gorm:"primaryKey" json:"id"`
	RouteCode            string   `gorm:"size:64;not null;uniqueIndex:idx_performance_route_week" json:"route_code"`
	Week                 string   `gorm:"size:32;not null;uniqueIndex:idx_performance_route_week" json:"week"`
	PerformanceVariation *float64 `json:"performance_variation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PerformanceRecord) TableName() string { return "performance_records" }
