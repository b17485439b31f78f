package kpi

import (
	"cmp"
	"context"
	"slices"

	"scci_dashboard/internal/models"
)

// Repository is the read side of the relational store used for KPIs.
type Repository interface {
	TelemetryForWeek(ctx context.Context, routeCode string, weeks []string) (*models.TelemetryRecord, error)
	PerformanceForWeek(ctx context.Context, routeCode string, weeks []string) (*models.PerformanceRecord, error)
	TelemetryForWeeks(ctx context.Context, routeCode string, weeks []string) ([]models.TelemetryRecord, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)
	RouteWeeks(ctx context.Context) ([]models.TelemetryRecord, error)
}

// RawTelemetry echoes the inputs a KPI result was computed from.
type RawTelemetry struct {
	Available       *float64 `json:"available"`
	Loaded          *float64 `json:"loaded"`
	Used            *float64 `json:"used"`
	Total           *float64 `json:"total"`
	AvgStopDuration *float64 `json:"avg_stop_duration"`
	TripsOverFive   *int64   `json:"trips_over_five"`
	TotalTrips      *int64   `json:"total_trips"`
}

type Result struct {
	RouteCode string       `json:"routeCode"`
	Week      string       `json:"week"`
	SDEI      *float64     `json:"sdei"`
	SDCUI     *float64     `json:"sdcui"`
	SII       *float64     `json:"sii"`
	RPI       *float64     `json:"rpi"`
	Raw       RawTelemetry `json:"raw"`
}

type TrendPoint struct {
	Week  string   `json:"week"`
	SDEI  *float64 `json:"sdei"`
	SDCUI *float64 `json:"sdcui"`
	SII   *float64 `json:"sii"`
}

type RouteSummary struct {
	Code        string   `json:"code"`
	Origin      *string  `json:"origin"`
	Destination *string  `json:"destination"`
	Mode        *string  `json:"mode"`
	Weeks       []string `json:"weeks"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Calculate returns the KPIs of routeCode for week, or nil when no telemetry
// exists for that pair.
func (s *Service) Calculate(ctx context.Context, routeCode, week string) (*Result, error) {
	weeks := WeekCandidates(week)
	if len(weeks) == 0 {
		return nil, nil
	}

	rec, err := s.repo.TelemetryForWeek(ctx, routeCode, weeks)
	if err != nil || rec == nil {
		return nil, err
	}

	perf, err := s.repo.PerformanceForWeek(ctx, routeCode, weeks)
	if err != nil {
		return nil, err
	}

	idx := Compute(*rec, perf)
	return &Result{
		RouteCode: routeCode,
		Week:      week,
		SDEI:      idx.SDEI,
		SDCUI:     idx.SDCUI,
		SII:       idx.SII,
		RPI:       idx.RPI,
		Raw: RawTelemetry{
			Available:       rec.Available,
			Loaded:          rec.Loaded,
			Used:            rec.Used,
			Total:           rec.Total,
			AvgStopDuration: rec.AvgStopDuration,
			TripsOverFive:   rec.TripsOverFive,
			TotalTrips:      rec.TotalTrips,
		},
	}, nil
}

// Trend computes SDEI, SDCUI and SII for each requested week of routeCode
// (all weeks when none are given), ascending by week text. Multi-digit
// week numbers sort lexically ("W10" before "W2").
func (s *Service) Trend(ctx context.Context, routeCode string, weeks []string) ([]TrendPoint, error) {
	var filter []string
	if len(weeks) > 0 {
		filter = ExpandWeeks(weeks)
		if len(filter) == 0 {
			return []TrendPoint{}, nil
		}
	}

	records, err := s.repo.TelemetryForWeeks(ctx, routeCode, filter)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(records, func(a, b models.TelemetryRecord) int {
		return cmp.Compare(a.Week, b.Week)
	})

	points := make([]TrendPoint, 0, len(records))
	for _, rec := range records {
		idx := Compute(rec, nil)
		points = append(points, TrendPoint{
			Week:  rec.Week,
			SDEI:  idx.SDEI,
			SDCUI: idx.SDCUI,
			SII:   idx.SII,
		})
	}
	return points, nil
}

// Routes lists every route with the weeks it has telemetry for.
func (s *Service) Routes(ctx context.Context) ([]RouteSummary, error) {
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := s.repo.RouteWeeks(ctx)
	if err != nil {
		return nil, err
	}

	weeksByRoute := map[string][]string{}
	for _, p := range pairs {
		weeksByRoute[p.RouteCode] = append(weeksByRoute[p.RouteCode], p.Week)
	}

	out := make([]RouteSummary, 0, len(routes))
	for _, r := range routes {
		weeks := weeksByRoute[r.RouteCode]
		slices.Sort(weeks)
		weeks = slices.Compact(weeks)
		if weeks == nil {
			weeks = []string{}
		}
		out = append(out, RouteSummary{
			Code:        r.RouteCode,
			Origin:      r.OriginCounty,
			Destination: r.DestinationCounty,
			Mode:        r.Mode,
			Weeks:       weeks,
		})
	}
	slices.SortFunc(out, func(a, b RouteSummary) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}
