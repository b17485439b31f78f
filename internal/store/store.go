// Package store is the GORM/postgres persistence layer shared by ingestion,
// KPI computation, the map view and authentication.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/ingestion"
	"scci_dashboard/internal/models"
)

const batchSize = 500

const uniqueViolation = "23505"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn inside a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx ingestion.Writer) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&writer{db: tx})
	})
}

type writer struct {
	db *gorm.DB
}

// Truncate empties table and resets its identity sequence.
func (w *writer) Truncate(ctx context.Context, table string) error {
	stmt := "TRUNCATE TABLE " + pq.QuoteIdentifier(table) + " RESTART IDENTITY CASCADE"
	if err := w.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

func (w *writer) UpsertRoutes(ctx context.Context, routes []models.Route) error {
	if len(routes) == 0 {
		return nil
	}
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"origin_county", "destination_county", "mode", "updated_at"}),
	}).CreateInBatches(&routes, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert routes: %w", err)
	}
	return nil
}

func (w *writer) UpsertTelemetry(ctx context.Context, records []models.TelemetryRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "route_code"}, {Name: "week"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"available", "loaded", "used", "total", "avg_stop_duration",
			"trips_over_five", "total_trips", "latitude", "longitude",
			"event_timestamp", "updated_at",
		}),
	}).CreateInBatches(&records, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert telemetry: %w", err)
	}
	return nil
}

func (w *writer) UpsertPerformance(ctx context.Context, records []models.PerformanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route_code"}, {Name: "week"}},
		DoUpdates: clause.AssignmentColumns([]string{"performance_variation", "updated_at"}),
	}).CreateInBatches(&records, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert performance: %w", err)
	}
	return nil
}

// TelemetryForWeek returns the first telemetry record of routeCode whose
// week is any of weeks, or nil when none matches.
func (s *Store) TelemetryForWeek(ctx context.Context, routeCode string, weeks []string) (*models.TelemetryRecord, error) {
	var rec models.TelemetryRecord
	res := s.db.WithContext(ctx).
		Where("route_code = ? AND week IN ?", routeCode, weeks).
		Order("id").
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("find telemetry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) PerformanceForWeek(ctx context.Context, routeCode string, weeks []string) (*models.PerformanceRecord, error) {
	var rec models.PerformanceRecord
	res := s.db.WithContext(ctx).
		Where("route_code = ? AND week IN ?", routeCode, weeks).
		Order("id").
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("find performance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rec, nil
}

// TelemetryForWeeks lists routeCode's telemetry ordered by week; an empty
// weeks slice returns every week.
func (s *Store) TelemetryForWeeks(ctx context.Context, routeCode string, weeks []string) ([]models.TelemetryRecord, error) {
	q := s.db.WithContext(ctx).Where("route_code = ?", routeCode)
	if len(weeks) > 0 {
		q = q.Where("week IN ?", weeks)
	}

	var records []models.TelemetryRecord
	if err := q.Order("week ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list telemetry: %w", err)
	}
	return records, nil
}

func (s *Store) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := s.db.WithContext(ctx).Order("route_code ASC").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

// RouteWeeks returns the (route_code, week) pairs present in telemetry.
func (s *Store) RouteWeeks(ctx context.Context) ([]models.TelemetryRecord, error) {
	var pairs []models.TelemetryRecord
	err := s.db.WithContext(ctx).
		Select("route_code", "week").
		Order("route_code ASC").
		Order("week ASC").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("list route weeks: %w", err)
	}
	return pairs, nil
}

func (s *Store) FindRoute(ctx context.Context, routeCode string) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).Where("route_code = ?", routeCode).First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find route: %w", err)
	}
	return &route, nil
}

// TelemetryPoints returns routeCode's telemetry ordered by event time.
func (s *Store) TelemetryPoints(ctx context.Context, routeCode string) ([]models.TelemetryRecord, error) {
	var records []models.TelemetryRecord
	err := s.db.WithContext(ctx).
		Where("route_code = ?", routeCode).
		Order("event_timestamp ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list telemetry points: %w", err)
	}
	return records, nil
}

// FindUserByEmail returns nil when no user has that email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	res := s.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&user)
	if res.Error != nil {
		return nil, fmt.Errorf("find user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
