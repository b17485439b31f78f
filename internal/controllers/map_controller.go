package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/models"
)

// MapRepository reads a route and its positioned telemetry.
type MapRepository interface {
	FindRoute(ctx context.Context, routeCode string) (*models.Route, error)
	TelemetryPoints(ctx context.Context, routeCode string) ([]models.TelemetryRecord, error)
}

type RouteInfo struct {
	Code        string  `json:"code"`
	Origin      *string `json:"origin"`
	Destination *string `json:"destination"`
	Mode        *string `json:"mode"`
}

type TelemetryPoint struct {
	ID             uint       `json:"id"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	EventTimestamp *time.Time `json:"event_timestamp"`
}

// MapResponse is the payload of the map view. Path is a GeoJSON LineString
// through the positioned points, present when there are at least two.
type MapResponse struct {
	Route     RouteInfo        `json:"route"`
	Telemetry []TelemetryPoint `json:"telemetry"`
	Path      json.RawMessage  `json:"path,omitempty"`
}

type MapController struct {
	repo MapRepository
}

func NewMapController(repo MapRepository) *MapController {
	return &MapController{repo: repo}
}

// GetRouteMap returns a route with its telemetry ordered by event time.
func (mc *MapController) GetRouteMap(c *gin.Context) {
	ctx := c.Request.Context()
	routeCode := c.Param("routeCode")

	route, err := mc.repo.FindRoute(ctx, routeCode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
			return
		}
		respondError(c, "GetRouteMap", err)
		return
	}

	records, err := mc.repo.TelemetryPoints(ctx, routeCode)
	if err != nil {
		respondError(c, "GetRouteMap", err)
		return
	}

	resp := MapResponse{
		Route: RouteInfo{
			Code:        route.RouteCode,
			Origin:      route.OriginCounty,
			Destination: route.DestinationCounty,
			Mode:        route.Mode,
		},
		Telemetry: make([]TelemetryPoint, 0, len(records)),
	}
	for _, r := range records {
		resp.Telemetry = append(resp.Telemetry, TelemetryPoint{
			ID:             r.ID,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			EventTimestamp: r.EventTimestamp,
		})
	}

	path, err := pathGeoJSON(resp.Telemetry)
	if err != nil {
		logrus.WithError(err).WithField("route_code", routeCode).Warn("GetRouteMap: could not encode path")
	}
	resp.Path = path

	c.JSON(http.StatusOK, resp)
}

// pathGeoJSON encodes the positioned points as a LineString in
// longitude/latitude order. It returns nil for fewer than two points.
func pathGeoJSON(points []TelemetryPoint) (json.RawMessage, error) {
	coords := make([]geom.Coord, 0, len(points))
	for _, p := range points {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		coords = append(coords, geom.Coord{*p.Longitude, *p.Latitude})
	}
	if len(coords) < 2 {
		return nil, nil
	}

	line, err := geom.NewLineString(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, err
	}
	b, err := gjson.Marshal(line)
	if err != nil {
		return nil, err
	}
	return b, nil
}
