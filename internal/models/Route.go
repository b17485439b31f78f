package models

import "time"

// Route is an origin-destination transport pair identified by its code.
// Descriptive fields are overwritten on every ingestion (last write wins).
type Route struct {
	RouteCode         string    `gorm:"primaryKey;size:64" json:"route_code"`
	OriginCounty      *string   `json:"origin_county"`
	DestinationCounty *string   `json:"destination_county"`
	Mode              *string   `json:"mode"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Route) TableName() string { return "routes" }
