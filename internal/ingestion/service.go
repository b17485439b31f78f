// Package ingestion turns dataset rows into routes, telemetry and
// performance records and writes them in one transaction per dataset.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/metrics"
	"scci_dashboard/internal/models"
)

const (
	DatasetTelemetry   = "telemetry"
	DatasetPerformance = "performance"
)

// RowSource reads every row of a dataset file.
type RowSource interface {
	ReadAll(ctx context.Context, path string, limit int) ([]dataset.Row, error)
}

// Writer is the set of writes available inside an ingestion transaction.
type Writer interface {
	Truncate(ctx context.Context, table string) error
	UpsertRoutes(ctx context.Context, routes []models.Route) error
	UpsertTelemetry(ctx context.Context, records []models.TelemetryRecord) error
	UpsertPerformance(ctx context.Context, records []models.PerformanceRecord) error
}

// Store runs fn atomically: every write commits, or none does.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Writer) error) error
}

type TelemetryResult struct {
	Routes  int    `json:"routes"`
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type PerformanceResult struct {
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// LoadOptions selects the files of a composite load. Empty paths fall back
// to the configured defaults.
type LoadOptions struct {
	Truncate        bool
	TelemetryFile   string
	PerformanceFile string
}

type LoadSummary struct {
	Telemetry   TelemetryResult   `json:"telemetry"`
	Performance PerformanceResult `json:"performance"`
}

// Service is the bulk ingestion orchestrator.
type Service struct {
	source          RowSource
	store           Store
	telemetryFile   string
	performanceFile string
}

func NewService(source RowSource, store Store, telemetryFile, performanceFile string) *Service {
	return &Service{
		source:          source,
		store:           store,
		telemetryFile:   telemetryFile,
		performanceFile: performanceFile,
	}
}

// IngestTelemetry imports the capacity dataset at path: routes first, then
// telemetry records, optionally after truncating telemetry_records.
func (s *Service) IngestTelemetry(ctx context.Context, path string, truncate bool) (result TelemetryResult, err error) {
	start := time.Now()
	defer func() { observe(DatasetTelemetry, start, err) }()

	rows, err := s.source.ReadAll(ctx, path, 0)
	if err != nil {
		return result, err
	}

	routes := newOrderedSet[string, models.Route]()
	records := newOrderedSet[weekKey, models.TelemetryRecord]()
	for _, row := range rows {
		payload := NormalizeTelemetry(row)
		if route, ok := payload.Route(); ok {
			routes.put(route.RouteCode, route)
		}
		if rec, ok := payload.Record(); ok {
			records.put(weekKey{rec.RouteCode, rec.Week}, rec)
		} else {
			result.Skipped++
		}
	}

	err = s.store.Transaction(ctx, func(tx Writer) error {
		if truncate {
			if err := tx.Truncate(ctx, models.TelemetryRecord{}.TableName()); err != nil {
				return err
			}
		}
		if err := tx.UpsertRoutes(ctx, routes.values()); err != nil {
			return err
		}
		return tx.UpsertTelemetry(ctx, records.values())
	})
	if err != nil {
		return TelemetryResult{Skipped: result.Skipped}, fmt.Errorf("telemetry import: %w", err)
	}

	result.Routes = routes.len()
	result.Records = records.len()
	metrics.IngestionRowsTotal.WithLabelValues(DatasetTelemetry, "routes").Add(float64(result.Routes))
	metrics.IngestionRowsTotal.WithLabelValues(DatasetTelemetry, "records").Add(float64(result.Records))
	metrics.IngestionRowsTotal.WithLabelValues(DatasetTelemetry, "skipped").Add(float64(result.Skipped))

	logrus.WithFields(logrus.Fields{
		"path":     path,
		"truncate": truncate,
		"routes":   result.Routes,
		"records":  result.Records,
		"skipped":  result.Skipped,
	}).Info("telemetry dataset imported")
	return result, nil
}

// IngestPerformance imports the performance dataset at path.
func (s *Service) IngestPerformance(ctx context.Context, path string, truncate bool) (result PerformanceResult, err error) {
	start := time.Now()
	defer func() { observe(DatasetPerformance, start, err) }()

	rows, err := s.source.ReadAll(ctx, path, 0)
	if err != nil {
		return result, err
	}

	records := newOrderedSet[weekKey, models.PerformanceRecord]()
	for _, row := range rows {
		if rec, ok := NormalizePerformance(row).Record(); ok {
			records.put(weekKey{rec.RouteCode, rec.Week}, rec)
		} else {
			result.Skipped++
		}
	}

	err = s.store.Transaction(ctx, func(tx Writer) error {
		if truncate {
			if err := tx.Truncate(ctx, models.PerformanceRecord{}.TableName()); err != nil {
				return err
			}
		}
		return tx.UpsertPerformance(ctx, records.values())
	})
	if err != nil {
		return PerformanceResult{Skipped: result.Skipped}, fmt.Errorf("performance import: %w", err)
	}

	result.Records = records.len()
	metrics.IngestionRowsTotal.WithLabelValues(DatasetPerformance, "records").Add(float64(result.Records))
	metrics.IngestionRowsTotal.WithLabelValues(DatasetPerformance, "skipped").Add(float64(result.Skipped))

	logrus.WithFields(logrus.Fields{
		"path":     path,
		"truncate": truncate,
		"records":  result.Records,
		"skipped":  result.Skipped,
	}).Info("performance dataset imported")
	return result, nil
}

// LoadAll imports both datasets concurrently, each in its own transaction.
// A failure in one does not roll back the other; both outcomes are reported
// and the returned error joins whichever failed.
func (s *Service) LoadAll(ctx context.Context, opts LoadOptions) (LoadSummary, error) {
	telemetryFile := opts.TelemetryFile
	if telemetryFile == "" {
		telemetryFile = s.telemetryFile
	}
	performanceFile := opts.PerformanceFile
	if performanceFile == "" {
		performanceFile = s.performanceFile
	}

	var (
		summary               LoadSummary
		telemetryErr, perfErr error
		wg                    sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary.Telemetry, telemetryErr = s.IngestTelemetry(ctx, telemetryFile, opts.Truncate)
		if telemetryErr != nil {
			summary.Telemetry.Error = telemetryErr.Error()
		}
	}()
	go func() {
		defer wg.Done()
		summary.Performance, perfErr = s.IngestPerformance(ctx, performanceFile, opts.Truncate)
		if perfErr != nil {
			summary.Performance.Error = perfErr.Error()
		}
	}()
	wg.Wait()

	return summary, errors.Join(telemetryErr, perfErr)
}

func observe(name string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		logrus.WithError(err).WithField("dataset", name).Error("dataset import failed")
	}
	metrics.IngestionRunsTotal.WithLabelValues(name, status).Inc()
	metrics.IngestionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

type weekKey struct {
	routeCode string
	week      string
}

// orderedSet keeps the last value per key in first-seen key order.
type orderedSet[K comparable, V any] struct {
	index map[K]int
	items []V
}

func newOrderedSet[K comparable, V any]() *orderedSet[K, V] {
	return &orderedSet[K, V]{index: map[K]int{}}
}

func (o *orderedSet[K, V]) put(k K, v V) {
	if i, ok := o.index[k]; ok {
		o.items[i] = v
		return
	}
	o.index[k] = len(o.items)
	o.items = append(o.items, v)
}

func (o *orderedSet[K, V]) values() []V { return o.items }

func (o *orderedSet[K, V]) len() int { return len(o.items) }
