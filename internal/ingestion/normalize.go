package ingestion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/models"
)

// TelemetryPayload is a capacity-dataset row in canonical shape. A nil
// RouteCode or Week means the row cannot produce a stored record.
type TelemetryPayload struct {
	RouteCode       *string
	Week            *string
	Available       *float64
	Loaded          *float64
	Used            *float64
	Total           *float64
	AvgStopDuration *float64
	TripsOverFive   *int64
	TotalTrips      *int64
	Latitude        *float64
	Longitude       *float64
	EventTimestamp  *time.Time

	OriginCounty      *string
	DestinationCounty *string
	Mode              *string
}

// PerformancePayload is a performance-dataset row in canonical shape.
type PerformancePayload struct {
	RouteCode            *string
	Week                 *string
	PerformanceVariation *float64
}

// NormalizeTelemetry maps a raw row onto TelemetryPayload, accepting the
// historical snake_case and camelCase spellings of each field.
func NormalizeTelemetry(row dataset.Row) TelemetryPayload {
	return TelemetryPayload{
		RouteCode:       toText(pick(row, "route_code", "routeCode")),
		Week:            toText(pick(row, "week")),
		Available:       toNumber(pick(row, "available")),
		Loaded:          toNumber(pick(row, "loaded")),
		Used:            toNumber(pick(row, "used")),
		Total:           toNumber(pick(row, "total")),
		AvgStopDuration: toNumber(pick(row, "avg_stop_duration", "avgStopDuration")),
		TripsOverFive:   toInt(pick(row, "trips_over_five", "tripsOverFive")),
		TotalTrips:      toInt(pick(row, "total_trips", "totalTrips")),
		Latitude:        toNumber(pick(row, "latitude", "lat")),
		Longitude:       toNumber(pick(row, "longitude", "lon", "lng")),
		EventTimestamp:  toTime(pick(row, "event_timestamp", "eventTimestamp")),

		OriginCounty:      toText(pick(row, "origin_county", "originCounty", "origin_region")),
		DestinationCounty: toText(pick(row, "destination_county", "destinationCounty", "destination_region")),
		Mode:              toText(pick(row, "mode", "transport_mode", "transportMode")),
	}
}

// NormalizePerformance maps a raw row onto PerformancePayload.
func NormalizePerformance(row dataset.Row) PerformancePayload {
	return PerformancePayload{
		RouteCode:            toText(pick(row, "route_code", "routeCode")),
		Week:                 toText(pick(row, "week")),
		PerformanceVariation: toNumber(pick(row, "performance_variation", "performanceVariation")),
	}
}

// Route returns the route described by the payload, if it has a code.
func (p TelemetryPayload) Route() (models.Route, bool) {
	if p.RouteCode == nil {
		return models.Route{}, false
	}
	return models.Route{
		RouteCode:         *p.RouteCode,
		OriginCounty:      p.OriginCounty,
		DestinationCounty: p.DestinationCounty,
		Mode:              p.Mode,
	}, true
}

// Record returns the telemetry record, if both route code and week are set.
func (p TelemetryPayload) Record() (models.TelemetryRecord, bool) {
	if p.RouteCode == nil || p.Week == nil {
		return models.TelemetryRecord{}, false
	}
	return models.TelemetryRecord{
		RouteCode:       *p.RouteCode,
		Week:            *p.Week,
		Available:       p.Available,
		Loaded:          p.Loaded,
		Used:            p.Used,
		Total:           p.Total,
		AvgStopDuration: p.AvgStopDuration,
		TripsOverFive:   p.TripsOverFive,
		TotalTrips:      p.TotalTrips,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		EventTimestamp:  p.EventTimestamp,
	}, true
}

func (p PerformancePayload) Record() (models.PerformanceRecord, bool) {
	if p.RouteCode == nil || p.Week == nil {
		return models.PerformanceRecord{}, false
	}
	return models.PerformanceRecord{
		RouteCode:            *p.RouteCode,
		Week:                 *p.Week,
		PerformanceVariation: p.PerformanceVariation,
	}, true
}

// pick returns the value of the first listed key present with a non-nil value.
func pick(row dataset.Row, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

type float64er interface {
	Float64() float64
}

// toNumber converts v to a finite float; anything else becomes nil.
func toNumber(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case float64er:
		f = n.Float64()
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// toInt converts v to an int64. Fractional values round; anything outside
// the int64 range becomes nil.
func toInt(v any) *int64 {
	var i int64
	switch n := v.(type) {
	case int:
		i = int64(n)
	case int8:
		i = int64(n)
	case int16:
		i = int64(n)
	case int32:
		i = int64(n)
	case int64:
		i = n
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil
		}
		i = int64(n)
	case uint8:
		i = int64(n)
	case uint16:
		i = int64(n)
	case uint32:
		i = int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return nil
		}
		i = int64(n)
	default:
		f := toNumber(v)
		if f == nil {
			return nil
		}
		r := math.Round(*f)
		if r < -(1<<63) || r >= 1<<63 {
			return nil
		}
		i = int64(r)
	}
	return &i
}

// toText renders v as a trimmed string. Dates become ISO-8601 and integral
// numbers lose their decimal part, so week 7 and "7" share one key.
func toText(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(t)
	case []byte:
		s = strings.TrimSpace(string(t))
	case time.Time:
		s = t.UTC().Format("2006-01-02T15:04:05.000Z")
	case bool:
		s = strconv.FormatBool(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s = fmt.Sprint(t)
	default:
		n := toNumber(v)
		if n == nil {
			return nil
		}
		s = strconv.FormatFloat(*n, 'f', -1, 64)
	}
	if s == "" {
		return nil
	}
	return &s
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// toTime parses v into a time; unparseable values become nil. Bare numbers
// are epoch milliseconds.
func toTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		raw := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return &parsed
			}
		}
		return nil
	default:
		n := toNumber(v)
		if n == nil {
			return nil
		}
		parsed := time.UnixMilli(int64(*n)).UTC()
		return &parsed
	}
}
