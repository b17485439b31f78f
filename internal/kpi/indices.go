// Package kpi derives the capacity indices (SDEI, SDCUI, SII, RPI) from
// stored telemetry and performance records.
package kpi

import (
	"math"
	"strconv"
	"strings"

	"scci_dashboard/internal/models"
)

const precision = 1e4

// SafeDivide returns numerator/denominator rounded to 4 decimals, or nil
// when an operand is missing, the denominator is zero, or the quotient is
// not finite.
func SafeDivide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil {
		return nil
	}
	if *denominator == 0 || math.IsNaN(*denominator) || math.IsNaN(*numerator) {
		return nil
	}
	return round(*numerator / *denominator)
}

// Indices are the derived KPIs of one route/week.
type Indices struct {
	SDEI      *float64 `json:"sdei"`
	SDCUI     *float64 `json:"sdcui"`
	StopRatio *float64 `json:"-"`
	SII       *float64 `json:"sii"`
	RPI       *float64 `json:"rpi"`
}

// Compute derives the indices from rec and, when present, perf.
func Compute(rec models.TelemetryRecord, perf *models.PerformanceRecord) Indices {
	idx := Indices{
		SDEI:      SafeDivide(rec.Available, rec.Loaded),
		SDCUI:     SafeDivide(rec.Used, rec.Total),
		StopRatio: SafeDivide(intToFloat(rec.TripsOverFive), intToFloat(rec.TotalTrips)),
	}
	idx.SII = stopIntensity(rec.AvgStopDuration, idx.StopRatio)
	if perf != nil && perf.PerformanceVariation != nil {
		idx.RPI = round(*perf.PerformanceVariation)
	}
	return idx
}

// stopIntensity is avg × ratio, only for a non-zero average and known ratio.
func stopIntensity(avg, ratio *float64) *float64 {
	if avg == nil || *avg == 0 || ratio == nil {
		return nil
	}
	return round(*avg * *ratio)
}

// WeekCandidates lists the stored spellings that identify the same week as
// week: the text itself and, when it parses as a number, its canonical
// numeric form ("02" also matches "2").
func WeekCandidates(week string) []string {
	return ExpandWeeks([]string{week})
}

// ExpandWeeks applies WeekCandidates to each week, dropping duplicates.
func ExpandWeeks(weeks []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(weeks)*2)
	add := func(w string) {
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	for _, w := range weeks {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		add(w)
		if n, err := strconv.ParseFloat(w, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			add(strconv.FormatFloat(n, 'f', -1, 64))
		}
	}
	return out
}

// round keeps 4 decimals; non-finite values have no representation and
// become nil. Magnitudes too large to scale carry no decimals and pass as is.
func round(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	scaled := v * precision
	if math.IsInf(scaled, 0) {
		return &v
	}
	r := math.Round(scaled) / precision
	return &r
}

func intToFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
