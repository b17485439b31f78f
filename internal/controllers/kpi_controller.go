package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/kpi"
)

// KPIService computes indices from stored telemetry.
type KPIService interface {
	Calculate(ctx context.Context, routeCode, week string) (*kpi.Result, error)
	Trend(ctx context.Context, routeCode string, weeks []string) ([]kpi.TrendPoint, error)
	Routes(ctx context.Context) ([]kpi.RouteSummary, error)
}

type KPIController struct {
	svc KPIService
}

func NewKPIController(svc KPIService) *KPIController {
	return &KPIController{svc: svc}
}

// ListRoutes returns the route catalogue with the weeks that have telemetry.
func (kc *KPIController) ListRoutes(c *gin.Context) {
	routes, err := kc.svc.Routes(c.Request.Context())
	if err != nil {
		respondError(c, "ListRoutes", err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

// GetKPI returns the indices of one route/week.
func (kc *KPIController) GetKPI(c *gin.Context) {
	result, err := kc.svc.Calculate(c.Request.Context(), c.Param("routeCode"), c.Param("week"))
	if err != nil {
		respondError(c, "GetKPI", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No KPI data found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Trend returns per-week indices of a route, optionally restricted to weeks.
func (kc *KPIController) Trend(c *gin.Context) {
	var input struct {
		Weeks []any `json:"weeks"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, "Trend", apperr.Validation("Invalid request body"))
		return
	}

	weeks, err := weekStrings(input.Weeks)
	if err != nil {
		respondError(c, "Trend", err)
		return
	}

	points, err := kc.svc.Trend(c.Request.Context(), c.Param("routeCode"), weeks)
	if err != nil {
		respondError(c, "Trend", err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// weekStrings accepts week identifiers sent either as JSON strings or numbers.
func weekStrings(raw []any) ([]string, error) {
	weeks := make([]string, 0, len(raw))
	for _, w := range raw {
		switch v := w.(type) {
		case string:
			weeks = append(weeks, strings.TrimSpace(v))
		case float64:
			weeks = append(weeks, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, apperr.Validation("weeks must be strings or numbers")
		}
	}
	return weeks, nil
}
