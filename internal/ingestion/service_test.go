package ingestion

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/models"
)

type fakeSource struct {
	files map[string][]dataset.Row
}

func (s *fakeSource) ReadAll(_ context.Context, path string, _ int) ([]dataset.Row, error) {
	rows, ok := s.files[path]
	if !ok {
		return nil, apperr.ErrFileNotFound
	}
	return rows, nil
}

type tables struct {
	routes      map[string]models.Route
	telemetry   map[weekKey]models.TelemetryRecord
	performance map[weekKey]models.PerformanceRecord
}

func (t tables) clone() tables {
	return tables{
		routes:      maps.Clone(t.routes),
		telemetry:   maps.Clone(t.telemetry),
		performance: maps.Clone(t.performance),
	}
}

// memStore applies a transaction's writes to a copy and swaps it in only
// when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	committed tables
	failOn    string
}

func newMemStore() *memStore {
	return &memStore{committed: tables{
		routes:      map[string]models.Route{},
		telemetry:   map[weekKey]models.TelemetryRecord{},
		performance: map[weekKey]models.PerformanceRecord{},
	}}
}

func (m *memStore) Transaction(_ context.Context, fn func(tx Writer) error) error {
	m.mu.Lock()
	staged := m.committed.clone()
	m.mu.Unlock()

	tx := &memTx{t: staged, failOn: m.failOn, touched: map[string]bool{}}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.touched["routes"] {
		m.committed.routes = staged.routes
	}
	if tx.touched["telemetry_records"] {
		m.committed.telemetry = staged.telemetry
	}
	if tx.touched["performance_records"] {
		m.committed.performance = staged.performance
	}
	return nil
}

type memTx struct {
	t       tables
	failOn  string
	touched map[string]bool
}

func (tx *memTx) Truncate(_ context.Context, table string) error {
	tx.touched[table] = true
	switch table {
	case "telemetry_records":
		clear(tx.t.telemetry)
	case "performance_records":
		clear(tx.t.performance)
	}
	return nil
}

func (tx *memTx) UpsertRoutes(_ context.Context, routes []models.Route) error {
	tx.touched["routes"] = true
	for _, r := range routes {
		tx.t.routes[r.RouteCode] = r
	}
	return nil
}

func (tx *memTx) UpsertTelemetry(_ context.Context, records []models.TelemetryRecord) error {
	if tx.failOn == "telemetry" {
		return errors.New("telemetry write failed")
	}
	tx.touched["telemetry_records"] = true
	for _, r := range records {
		tx.t.telemetry[weekKey{r.RouteCode, r.Week}] = r
	}
	return nil
}

func (tx *memTx) UpsertPerformance(_ context.Context, records []models.PerformanceRecord) error {
	if tx.failOn == "performance" {
		return errors.New("performance write failed")
	}
	tx.touched["performance_records"] = true
	for _, r := range records {
		tx.t.performance[weekKey{r.RouteCode, r.Week}] = r
	}
	return nil
}

func telemetryRows(available float64) []dataset.Row {
	return []dataset.Row{
		{"route_code": "A", "week": "2024-W01", "available": available, "loaded": 100.0, "origin_county": "old"},
		{"route_code": "A", "week": "2024-W02", "available": available, "loaded": 100.0, "origin_county": "new"},
		{"route_code": "B", "week": "2024-W01", "available": available, "loaded": 50.0},
		{"route_code": nil, "week": "2024-W01", "available": 1.0},
		{"routeCode": "C"},
	}
}

func TestIngestTelemetry_CountsAndDedupesRoutes(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{files: map[string][]dataset.Row{"t.parquet": telemetryRows(80)}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	res, err := svc.IngestTelemetry(context.Background(), "t.parquet", false)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Routes)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, store.committed.routes, 3)
	assert.Equal(t, "new", *store.committed.routes["A"].OriginCounty)
	assert.Len(t, store.committed.telemetry, 3)
}

func TestIngestTelemetry_ReingestIsIdempotentWithLatestValues(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{files: map[string][]dataset.Row{"t.parquet": telemetryRows(80)}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	_, err := svc.IngestTelemetry(context.Background(), "t.parquet", false)
	require.NoError(t, err)

	src.files["t.parquet"] = telemetryRows(20)
	_, err = svc.IngestTelemetry(context.Background(), "t.parquet", false)
	require.NoError(t, err)

	assert.Len(t, store.committed.telemetry, 3)
	assert.Equal(t, 20.0, *store.committed.telemetry[weekKey{"A", "2024-W01"}].Available)
}

func TestIngestTelemetry_TruncateReplacesPriorRecords(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{files: map[string][]dataset.Row{
		"t.parquet":     telemetryRows(80),
		"small.parquet": {{"route_code": "Z", "week": "1"}, {"route_code": "Z", "week": 1}},
	}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	_, err := svc.IngestTelemetry(context.Background(), "t.parquet", false)
	require.NoError(t, err)

	res, err := svc.IngestTelemetry(context.Background(), "small.parquet", true)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Len(t, store.committed.telemetry, 1)
	assert.Contains(t, store.committed.telemetry, weekKey{"Z", "1"})
}

func TestIngestTelemetry_FailedTransactionCommitsNothing(t *testing.T) {
	store := newMemStore()
	store.failOn = "telemetry"
	src := &fakeSource{files: map[string][]dataset.Row{"t.parquet": telemetryRows(80)}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	res, err := svc.IngestTelemetry(context.Background(), "t.parquet", true)
	require.Error(t, err)

	assert.Zero(t, res.Routes)
	assert.Zero(t, res.Records)
	assert.Empty(t, store.committed.routes)
	assert.Empty(t, store.committed.telemetry)
}

func TestIngestTelemetry_MissingFile(t *testing.T) {
	svc := NewService(&fakeSource{}, newMemStore(), "t.parquet", "p.parquet")

	_, err := svc.IngestTelemetry(context.Background(), "missing.parquet", false)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
}

func TestIngestPerformance(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{files: map[string][]dataset.Row{"p.parquet": {
		{"route_code": "A", "week": "2024-W01", "performance_variation": 0.1},
		{"route_code": "A", "week": "2024-W01", "performance_variation": 0.2},
		{"route_code": "", "week": "2024-W01", "performance_variation": 0.3},
	}}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	res, err := svc.IngestPerformance(context.Background(), "p.parquet", false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0.2, *store.committed.performance[weekKey{"A", "2024-W01"}].PerformanceVariation)
	assert.Empty(t, store.committed.routes)
}

func TestLoadAll_MergesBothDatasets(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{files: map[string][]dataset.Row{
		"t.parquet": telemetryRows(80),
		"p.parquet": {{"route_code": "A", "week": "2024-W01", "performance_variation": 0.1}},
	}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	summary, err := svc.LoadAll(context.Background(), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Telemetry.Routes)
	assert.Equal(t, 3, summary.Telemetry.Records)
	assert.Equal(t, 1, summary.Performance.Records)
	assert.Empty(t, summary.Telemetry.Error)
	assert.Empty(t, summary.Performance.Error)
}

func TestLoadAll_OneDatasetFailingDoesNotUndoTheOther(t *testing.T) {
	store := newMemStore()
	store.failOn = "performance"
	src := &fakeSource{files: map[string][]dataset.Row{
		"t.parquet": telemetryRows(80),
		"p.parquet": {{"route_code": "A", "week": "2024-W01", "performance_variation": 0.1}},
	}}
	svc := NewService(src, store, "t.parquet", "p.parquet")

	summary, err := svc.LoadAll(context.Background(), LoadOptions{Truncate: true})
	require.Error(t, err)

	assert.Equal(t, 3, summary.Telemetry.Records)
	assert.Len(t, store.committed.telemetry, 3)
	assert.NotEmpty(t, summary.Performance.Error)
	assert.Empty(t, store.committed.performance)
}

func TestLoadAll_OverridesFiles(t *testing.T) {
	src := &fakeSource{files: map[string][]dataset.Row{
		"other-t.parquet": {{"route_code": "X", "week": "1"}},
		"other-p.parquet": {},
	}}
	svc := NewService(src, newMemStore(), "t.parquet", "p.parquet")

	summary, err := svc.LoadAll(context.Background(), LoadOptions{
		TelemetryFile:   "other-t.parquet",
		PerformanceFile: "other-p.parquet",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Telemetry.Records)
	assert.Equal(t, 0, summary.Performance.Records)
}
